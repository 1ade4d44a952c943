package cpu

import (
	"fmt"
	"io"
	"os"
)

// LoadProgram copies image into memory at ProgramStart. It does not reset
// the machine; call Reset first.
func (emu *EMU) LoadProgram(image []byte) error {
	if len(image) > MaxProgramLen {
		return &LoadError{
			Size: len(image),
			Err:  fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, len(image), MaxProgramLen),
		}
	}
	copy(emu.memory[ProgramStart:], image)
	return nil
}

// LoadReader reads a whole image from r and loads it.
func (emu *EMU) LoadReader(r io.Reader) error {
	// one byte past the limit is enough to detect oversize images
	image, err := io.ReadAll(io.LimitReader(r, MaxProgramLen+1))
	if err != nil {
		return &LoadError{Size: len(image), Err: err}
	}
	return emu.LoadProgram(image)
}

// LoadROM loads the program image stored at filename.
func (emu *EMU) LoadROM(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return &LoadError{Path: filename, Err: err}
	}
	defer f.Close()

	if err := emu.LoadReader(f); err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = filename
		}
		return err
	}
	return nil
}
