package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sparklang/spark/pkg/bytecode"
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/config"
	"github.com/sparklang/spark/pkg/host"
	"github.com/sparklang/spark/pkg/image"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/primitive"
	"github.com/sparklang/spark/pkg/task"
	"github.com/sparklang/spark/pkg/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("spark version %s (image format %s)\n", version, image.CurrentVersion)
	case "help", "-h", "--help":
		printUsage()
	case "run":
		runCommand(os.Args[2:])
	case "disassemble", "disasm":
		disasmCommand(os.Args[2:])
	case "make-test-image":
		makeTestImageCommand(os.Args[2:])
	default:
		// Assume it's an image file to run.
		runCommand(os.Args[1:])
	}
}

func printUsage() {
	fmt.Println("spark - a message-passing bytecode virtual machine")
	fmt.Println("\nUsage:")
	fmt.Println("  spark [file.spk]                  Run a compiled image")
	fmt.Println("  spark run [flags] <file.spk>      Run a compiled image")
	fmt.Println("  spark disassemble <file.spk>      Disassemble an image")
	fmt.Println("  spark make-test-image <file.spk>  Emit a small sample image")
	fmt.Println("  spark version                     Show version")
	fmt.Println("  spark help                        Show this help")
	fmt.Println("\nRun flags:")
	fmt.Println("  -config <file.yaml>    Load VM tuning from a YAML file")
	fmt.Println("  -stack-depth <n>       Operand stack depth per frame")
	fmt.Println("  -mailbox-buffer <n>    Task mailbox channel buffer size")
	fmt.Println("  -log-level <level>     trace, debug, info, warn, error")
	fmt.Println("  -trace                 Per-instruction interpreter tracing")
}

// bootstrapRegistry builds a registry carrying every built-in class a
// program may name, wired to mailbox and log for the host classes.
func bootstrapRegistry(mailbox *task.Mailbox, log *logrus.Logger) *class.Registry {
	registry := class.NewRegistry()
	class.Bootstrap(registry)
	primitive.Bootstrap(registry)
	host.Bootstrap(registry, mailbox, log)
	return registry
}

// runCommand loads an image and executes its entry block, then drains the
// task mailbox so every spawned task is accounted for before exit. A
// runtime fault prints its kind and receiver description to stderr, per
// the error contract, and exits nonzero.
func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg, err := config.Parse(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	filename := fs.Arg(0)
	if filename == "" {
		fmt.Fprintln(os.Stderr, "Error: no image file specified")
		printUsage()
		os.Exit(1)
	}

	log := cfg.Logger()
	mailbox := task.NewMailbox(cfg.MailboxBuffer)
	registry := bootstrapRegistry(mailbox, log)

	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	loaded, err := image.Load(file, registry)
	file.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}
	if loaded.Entry == nil {
		fmt.Fprintln(os.Stderr, "Error: image has no entry block")
		os.Exit(1)
	}
	log.Debugf("loaded %s: %d classes, %d blocks", filename, len(loaded.Classes), len(loaded.Blocks))

	machine := vm.New(registry, mailbox, log)
	machine.MaxOperandDepth = cfg.FrameStackDepth
	if _, err := machine.Run(loaded.Entry); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}

	// Every spawned task already ran to completion inside spawn itself;
	// draining here makes delivery order observable and lets the driver
	// account for each task before the process exits.
	mailbox.Close()
	tasks := 0
	mailbox.Run(func(*object.Context) {
		tasks++
		log.Debugf("task %d delivered", tasks)
	})
}

// disasmCommand prints a human-readable listing of an image: the classes
// with their methods and override layers, then the shared block table.
func disasmCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no image file specified")
		fmt.Fprintln(os.Stderr, "\nUsage: spark disassemble <file.spk>")
		os.Exit(1)
	}
	filename := args[0]

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	mailbox := task.NewMailbox(0)
	registry := bootstrapRegistry(mailbox, log)

	file, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	loaded, err := image.Load(file, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Image Disassembly: %s ===\n", filename)

	fmt.Printf("\nClasses (%d):\n", len(loaded.Classes))
	if len(loaded.Classes) == 0 {
		fmt.Println("  (none)")
	}
	for _, c := range loaded.Classes {
		if c.HasParent {
			fmt.Printf("  class %s < %s\n", c.Name, c.Parent)
		} else {
			fmt.Printf("  class %s\n", c.Name)
		}
		for _, m := range c.Methods {
			fmt.Printf("    method %s:\n", m.Name)
			printBlock(m.Code, "      ")
		}
		for _, ov := range c.Overrides {
			fmt.Printf("    override at depth %d:\n", ov.Depth)
			for _, m := range ov.Methods {
				fmt.Printf("      method %s:\n", m.Name)
				printBlock(m.Code, "        ")
			}
		}
	}

	fmt.Printf("\nBlocks (%d):\n", len(loaded.Blocks))
	for i, blk := range loaded.Blocks {
		fmt.Printf("  [%d]%s\n", i, entrySuffix(i))
		printBlock(blk, "    ")
	}
}

func entrySuffix(i int) string {
	if i == 0 {
		return " (entry)"
	}
	return ""
}

func printBlock(blk *object.Block, indent string) {
	for i, instr := range blk.Instructions {
		fmt.Printf("%s%4d: %s", indent, i, instr.Op)
		switch instr.Op {
		case bytecode.SendMsg, bytecode.SendSuperMsg:
			fmt.Printf(" %d %q", instr.N, instr.Name)
		case bytecode.AccessClass:
			fmt.Printf(" %q", instr.Name)
		case bytecode.PushLiteral:
			fmt.Printf(" %d  ; %s", instr.N, formatLiteral(blk.Literals[instr.N]))
		case bytecode.AccessField, bytecode.AccessTemp, bytecode.StoreField, bytecode.StoreTemp:
			fmt.Printf(" %d", instr.N)
		}
		fmt.Println()
	}
}

func formatLiteral(v *object.Value) string {
	if v == nil {
		return "nil"
	}
	switch v.Kind {
	case object.KindBlock:
		blk, _ := v.Payload.(*object.Block)
		if blk != nil {
			return fmt.Sprintf("Block(%d instructions)", len(blk.Instructions))
		}
		return "Block"
	case object.KindString:
		return fmt.Sprintf("%s %q", v.Class, v.Payload)
	default:
		return fmt.Sprintf("%s %v", v.Class, v.Payload)
	}
}

// makeTestImageCommand emits a small, self-contained sample image: the
// entry block greets through the Logger, adds two integers, prints the
// sum, and spawns a task that prints its own line. Handy for exercising
// run and disassemble without a compiler in hand.
func makeTestImageCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no output file specified")
		fmt.Fprintln(os.Stderr, "\nUsage: spark make-test-image <file.spk>")
		os.Exit(1)
	}
	filename := args[0]

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	mailbox := task.NewMailbox(0)
	registry := bootstrapRegistry(mailbox, log)

	mustLit := func(className string, payload interface{}) *object.Value {
		v, err := registry.NewPrimitive(className, payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building literal: %v\n", err)
			os.Exit(1)
		}
		return v
	}

	spawned := &object.Block{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.AccessClass, Name: "Logger"},
			{Op: bytecode.PushLiteral, N: 0},
			{Op: bytecode.SendMsg, N: 1, Name: "println"},
			{Op: bytecode.ReturnStack},
		},
		Literals: []*object.Value{mustLit("String", "hello from a spawned task")},
	}

	entry := &object.Block{
		Instructions: []bytecode.Instruction{
			{Op: bytecode.AccessClass, Name: "Logger"},
			{Op: bytecode.PushLiteral, N: 0},
			{Op: bytecode.SendMsg, N: 1, Name: "println"},
			{Op: bytecode.DiscardStack},
			{Op: bytecode.PushLiteral, N: 1},
			{Op: bytecode.PushLiteral, N: 2},
			{Op: bytecode.SendMsg, N: 1, Name: "add"},
			{Op: bytecode.SendMsg, N: 0, Name: "to_string"},
			{Op: bytecode.StoreTemp, N: 0},
			{Op: bytecode.DiscardStack},
			{Op: bytecode.AccessClass, Name: "Logger"},
			{Op: bytecode.AccessTemp, N: 0},
			{Op: bytecode.SendMsg, N: 1, Name: "println"},
			{Op: bytecode.DiscardStack},
			{Op: bytecode.AccessClass, Name: "System"},
			{Op: bytecode.PushLiteral, N: 3},
			{Op: bytecode.SendMsg, N: 1, Name: "spawn"},
			{Op: bytecode.Halt},
		},
		Literals: []*object.Value{
			mustLit("String", "hello from spark"),
			mustLit("I64", int64(8)),
			mustLit("I64", int64(8)),
			mustLit("Block", spawned),
		},
	}

	out, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := image.Write(out, nil, []*object.Block{entry, spawned}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", filename)
}
