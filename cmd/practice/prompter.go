package main

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// prompter reads one value from the user.
type prompter interface {
	Ask(label, def string, validate func(string) error) (string, error)
	Choose(label string, items []string) (string, error)
}

type terminalPrompter struct{}

func (terminalPrompter) Ask(label, def string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
	}
	if validate != nil {
		p.Validate = validate
	}
	value, err := p.Run()
	return value, translatePromptErr(err)
}

func (terminalPrompter) Choose(label string, items []string) (string, error) {
	s := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	_, value, err := s.Run()
	return value, translatePromptErr(err)
}

// translatePromptErr treats Ctrl-C and Ctrl-D as a request to quit.
func translatePromptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errQuit
	}
	return err
}
