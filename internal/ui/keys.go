package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	Debug      key.Binding
	Up         key.Binding
	Down       key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Search     key.Binding
	Sentiment  key.Binding
	Source     key.Binding
	Language   key.Binding
	Product    key.Binding
	Answered   key.Binding
	ClearDates key.Binding
	ClearAll   key.Binding
	Override   key.Binding
	Older      key.Binding
	Newer      key.Binding
	Refresh    key.Binding
	Escape     key.Binding
	Enter      key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Debug:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
	Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	NextPage:   key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
	PrevPage:   key.NewBinding(key.WithKeys("N", "pgup"), key.WithHelp("N", "prev page")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sentiment:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sentiment")),
	Source:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "source")),
	Language:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
	Product:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "product")),
	Answered:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "answered")),
	ClearDates: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear dates")),
	ClearAll:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
	Override:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit product")),
	Older:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "older days")),
	Newer:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "newer days")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Sentiment, k.Source, k.ClearAll, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage},
		{k.Search, k.Sentiment, k.Source, k.Language, k.Product, k.Answered},
		{k.ClearDates, k.ClearAll, k.Override, k.Older, k.Newer},
		{k.Refresh, k.Debug, k.Help, k.Quit},
	}
}
