package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start      key.Binding
	Stop       key.Binding
	Pause      key.Binding
	Toggle     key.Binding
	New        key.Binding
	Edit       key.Binding
	Delete     key.Binding
	Archive    key.Binding
	Increment  key.Binding
	Decrement  key.Binding
	Value      key.Binding
	Filter     key.Binding
	Sort       key.Binding
	Search     key.Binding
	ShowDone   key.Binding
	Categories key.Binding
	Copy       key.Binding
	Link       key.Binding
	Mode       key.Binding
	Metric     key.Binding
	Export     key.Binding
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Tab4       key.Binding
	Tab5       key.Binding
	Tab6       key.Binding
	Tab        key.Binding
	Help       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Quit       key.Binding
}

// bind builds a binding shown in help as "label desc".
func bind(label, desc string, ks ...string) key.Binding {
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(label, desc))
}

var keys = keyMap{
	Start:      bind("s", "start", "s"),
	Stop:       bind("x", "stop", "x"),
	Pause:      bind("p", "pause/resume", "p"),
	Toggle:     bind("space", "done", " "),
	New:        bind("n", "new", "n"),
	Edit:       bind("E", "edit", "E"),
	Delete:     bind("d", "delete", "d"),
	Archive:    bind("a", "archive", "a"),
	Increment:  bind("+", "add one", "+", "="),
	Decrement:  bind("-", "remove one", "-"),
	Value:      bind("v", "set value", "v"),
	Filter:     bind("f", "filter", "f"),
	Sort:       bind("o", "sort", "o"),
	Search:     bind("/", "search", "/"),
	ShowDone:   bind("H", "show/hide done", "H"),
	Categories: bind("c", "categories", "c"),
	Copy:       bind("y", "copy", "y"),
	Link:       bind("t", "link task", "t"),
	Mode:       bind("g", "day/week/month", "g"),
	Metric:     bind("m", "metric", "m"),
	Export:     bind("e", "export", "e"),
	Tab1:       bind("1", "today", "1"),
	Tab2:       bind("2", "tasks", "2"),
	Tab3:       bind("3", "habits", "3"),
	Tab4:       bind("4", "pomodoro", "4"),
	Tab5:       bind("5", "statistics", "5"),
	Tab6:       bind("6", "settings", "6"),
	Tab:        bind("tab", "next view", "tab"),
	Help:       bind("?", "help", "?"),
	Enter:      bind("enter", "select", "enter"),
	Back:       bind("esc", "back", "esc"),
	Up:         bind("↑/k", "up", "up", "k"),
	Down:       bind("↓/j", "down", "down", "j"),
	Left:       bind("←/h", "left", "left", "h"),
	Right:      bind("→/l", "right", "right", "l"),
	Quit:       bind("q", "quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.New, k.Edit, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.New, k.Edit, k.Delete, k.Archive},
		{k.Start, k.Stop, k.Pause, k.Increment, k.Decrement, k.Value},
		{k.Filter, k.Sort, k.Search, k.ShowDone, k.Categories, k.Copy},
		{k.Link, k.Mode, k.Metric, k.Export},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5, k.Tab6},
		{k.Up, k.Down, k.Left, k.Right, k.Enter, k.Back, k.Quit},
	}
}
