package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/beanboi7/chyp8/emu/cpu"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm `path/ROM`",
	Short: "list the instructions of a ROM",
	Args:  cobra.ExactArgs(1),
	RunE:  Disasm,
}

func Disasm(cmd *cobra.Command, args []string) error {
	image, err := os.ReadFile(args[0])
	if err != nil {
		return &cpu.LoadError{Path: args[0], Err: err}
	}
	// same limit as a real load
	if err := cpu.NewEMU(cpu.Options{}).LoadProgram(image); err != nil {
		if le, ok := err.(*cpu.LoadError); ok {
			le.Path = args[0]
		}
		return err
	}
	return WriteListing(cmd.OutOrStdout(), image)
}

// WriteListing prints one line per instruction word: address, word and
// mnemonic. A trailing odd byte is printed as data.
func WriteListing(w io.Writer, image []byte) error {
	for off := 0; off < len(image); off += 2 {
		addr := cpu.ProgramStart + off
		if off+1 == len(image) {
			_, err := fmt.Fprintf(w, "%03X  %02X    DB 0x%02X\n", addr, image[off], image[off])
			return err
		}
		word := uint16(image[off])<<8 | uint16(image[off+1])
		if _, err := fmt.Fprintf(w, "%03X  %04X  %s\n", addr, word, cpu.Decode(word)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}
