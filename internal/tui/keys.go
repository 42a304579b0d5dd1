package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Collapse key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Add      key.Binding
	Trip     key.Binding
	Reset    key.Binding
	Cancel   key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "enter", "x"), key.WithHelp("space", "pack")),
		Collapse: key.NewBinding(key.WithKeys("tab", "c"), key.WithHelp("tab", "fold")),
		MoveUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Trip:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trip")),
		Reset:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "unpack all")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Collapse, k.MoveUp, k.MoveDown, k.Add, k.Trip, k.Reset, k.Quit}
}
