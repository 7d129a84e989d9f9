// This file is part of Dynarec.
//
// Dynarec is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dynarec is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dynarec.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jetsetilly/dynarec/arm"
	"github.com/jetsetilly/dynarec/disassembly"
	"github.com/jetsetilly/dynarec/ir"
	"github.com/jetsetilly/dynarec/logger"
	"github.com/jetsetilly/dynarec/recompiler"
	"github.com/jetsetilly/dynarec/statsview"
	"github.com/jetsetilly/dynarec/version"
)

func main() {
	vers, rev, _ := version.Version()

	root := &cobra.Command{
		Use:     "dynarec",
		Short:   "dynamic recompiler for ARM7TDMI guest code",
		Version: fmt.Sprintf("%s (%s)", vers, rev),
	}
	root.AddCommand(runCommand())

	if err := root.Execute(); err != nil {
		os.Exit(10)
	}
}

func runCommand() *cobra.Command {
	var (
		origin uint32
		cycles int
		model  string
		trace  bool
		dot    string
		log    bool
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "load a flat binary image and run it for a cycle budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m recompiler.Model
			switch model {
			case "arm7tdmi":
				m = recompiler.ModelARM7TDMI
			case "arm946es":
				m = recompiler.ModelARM946ES
			default:
				return fmt.Errorf("unknown model: %s", model)
			}

			if stats {
				statsview.Launch(os.Stdout)
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			// slack beyond the image for guest stack and workspace
			mem := arm.NewRAM(origin, len(image)+0x10000)
			copy(mem.Data, image)

			rec, err := recompiler.NewRecompiler(recompiler.Spec{
				Memory:   mem,
				Model:    m,
				RetainIR: trace || dot != "",
			})
			if err != nil {
				return err
			}

			st := rec.State()
			st.SetPC(origin)
			st.SetRegister(arm.RegSP, false, origin+uint32(len(mem.Data)))

			// the entry block's identity, noted before the run can change
			// the processor mode
			entry := arm.NewLocationRef(origin, st.Status.Mode, st.Status.Thumb)

			executed := rec.Run(cycles)

			if trace {
				rec.EachRetainedBlock(func(b *ir.Block) {
					traceBlock(cmd.OutOrStdout(), mem, b)
				})
			}

			if dot != "" {
				if err := writeDot(rec, entry, dot); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", st.String())
			fmt.Fprintf(cmd.OutOrStdout(), "cycles: %d\n", executed)
			fmt.Fprintf(cmd.OutOrStdout(), "blocks compiled: %d\n", rec.CompileCount())

			if log {
				logger.Write(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	cmd.Flags().Uint32Var(&origin, "origin", 0x8000, "load address of the image")
	cmd.Flags().IntVar(&cycles, "cycles", 1000000, "guest cycle budget")
	cmd.Flags().StringVar(&model, "model", "arm7tdmi", "guest processor model (arm7tdmi, arm946es)")
	cmd.Flags().BoolVar(&trace, "trace", false, "print disassembly and IR of every compiled block")
	cmd.Flags().StringVar(&dot, "dot", "", "write the entry block's IR graph to a dot file")
	cmd.Flags().BoolVar(&log, "log", false, "dump the log to stderr after the run")
	cmd.Flags().BoolVar(&stats, "stats", false, "run the statistics server during the run")

	return cmd
}

// traceBlock prints the guest disassembly of a block followed by its IR.
func traceBlock(w io.Writer, mem arm.SharedMemory, b *ir.Block) {
	fmt.Fprintf(w, "--- %s\n", b.Location)
	for pc := b.Location.PC(); pc < b.Terminal.Next; pc += 4 {
		opcode := mem.Read32(pc)
		fmt.Fprintf(w, "%08x  %08x  %s\n", pc, opcode, disassembly.Disassemble(opcode))
	}
	fmt.Fprintf(w, "%s\n", b.String())
}

func writeDot(rec *recompiler.Recompiler, entry arm.LocationRef, path string) error {
	b := rec.IRBlock(entry)
	if b == nil {
		return fmt.Errorf("no retained IR for the entry block")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	b.WriteDot(f)
	return nil
}
