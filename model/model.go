// Package model describes the calculator models built around the ACT
// processor.  A model contributes only parameters: display width, ROM
// bank count, data memory size, and the keypad's ROM dispatch codes.
// The processor core is identical across the family.
package model

import (
	"github.com/BurntSushi/toml"
)

// Model is one member of the calculator family.
type Model struct {
	Name          string         `toml:"name"`
	Digits        int            `toml:"digits"`
	Banks         int            `toml:"banks"`
	DataRegisters int            `toml:"data_registers"`
	Keys          map[string]int `toml:"keys"`
}

// Default returns a generic single bank model for bring-up and tests.
func Default() *Model {
	return &Model{
		Name:          "woodstock",
		Digits:        12,
		Banks:         1,
		DataRegisters: 16,
	}
}

// Load reads a model description from a TOML file.
func Load(path string) (mdl *Model, err error) {
	mdl = &Model{}
	_, err = toml.DecodeFile(path, mdl)
	if err != nil {
		mdl = nil
		return
	}

	err = mdl.Validate()
	if err != nil {
		mdl = nil
	}

	return
}

// Validate checks the model parameters for sanity.
func (mdl *Model) Validate() (err error) {
	switch {
	case mdl.Name == "":
		err = ErrModelName
	case mdl.Digits < 1:
		err = ErrModelDigits
	case mdl.Banks < 1:
		err = ErrModelBanks
	case mdl.DataRegisters < 0:
		err = ErrModelMemory
	}

	for _, code := range mdl.Keys {
		if code < 1 || code > 0xff {
			err = ErrModelKeycode
		}
	}

	return
}
