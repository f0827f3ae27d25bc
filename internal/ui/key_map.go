package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter  key.Binding
	back   key.Binding
	search key.Binding
	genres key.Binding
	myList key.Binding
	toggle key.Binding
	remove key.Binding
	next   key.Binding
	prev   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		genres: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genres")),
		myList: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "my list")),
		toggle: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add/remove")),
		remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		prev:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.search},
		{k.genres, k.myList, k.toggle},
		{k.remove, k.next, k.prev, k.quit},
	}
}
