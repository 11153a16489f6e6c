//go:build !tinygo

// Command mkflash builds a LittleFS flash image by driving the full flash
// stack against a simulated part: identify, status check, erase, program.
// All flash traffic runs on the file-write work queue, the same
// serialisation rule the firmware uses.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tinygo.org/x/tinyfs/littlefs"

	"ember/flash"
	"ember/flash/flashtest"
	"ember/hal"
	"ember/internal/buildinfo"
	"ember/osi"
)

func main() {
	var (
		outPath = flag.String("out", "Flash.bin", "Output image file.")
		srcPath = flag.String("src", "", "Directory tree to copy into the image.")
		sizeMB  = flag.Int("size-mb", 8, "Flash capacity in MiB (1, 2, 4, 8 or 16).")
		quiet   = flag.Bool("q", false, "Suppress progress output.")
	)
	flag.Parse()

	log := hal.NewHostLogger()
	osi.SetPanicHook(func(v any) {
		log.WriteLineString(fmt.Sprintf("mkflash: fatal: %v", v))
	})

	bits, ok := capacityBits(*sizeMB)
	if !ok {
		fatalf("unsupported capacity %d MiB", *sizeMB)
	}
	if !*quiet {
		log.WriteLineString("mkflash " + buildinfo.Short())
	}

	sim := flashtest.New([3]byte{0xc8, 0x40, bits})
	dev := flash.New(sim)

	osi.SysWorkQueueInit()

	var buildErr error
	work := osi.WorkCreate(func(any) {
		buildErr = build(dev, *srcPath, *quiet, log)
	}, nil, nil)
	if work == nil || !work.Enqueue(osi.SysWorkQueueFileWrite()) {
		fatalf("cannot schedule image build")
	}
	work.WaitFinish(osi.WaitForever)
	if buildErr != nil {
		fatalf("%v", buildErr)
	}

	if err := os.WriteFile(*outPath, sim.Memory(), 0o644); err != nil {
		fatalf("write image: %v", err)
	}
	if !*quiet {
		log.WriteLineString(fmt.Sprintf("mkflash: wrote %s (%d bytes)", *outPath, len(sim.Memory())))
	}
}

func capacityBits(sizeMB int) (byte, bool) {
	switch sizeMB {
	case 1:
		return 0x14, true
	case 2:
		return 0x15, true
	case 4:
		return 0x16, true
	case 8:
		return 0x17, true
	case 16:
		return 0x18, true
	}
	return 0, false
}

// build runs on the file-write work queue.
func build(dev *flash.Device, srcPath string, quiet bool, log hal.Logger) error {
	dev.Init()

	bd, err := flash.NewBlockDevice(dev)
	if err != nil {
		return err
	}

	lfs := littlefs.New(bd).Configure(&littlefs.Config{
		CacheSize:     256,
		LookaheadSize: 64,
		BlockCycles:   500,
	})
	if err := lfs.Format(); err != nil {
		return fmt.Errorf("littlefs format: %w", err)
	}
	if err := lfs.Mount(); err != nil {
		return fmt.Errorf("littlefs mount: %w", err)
	}
	defer func() { _ = lfs.Unmount() }()

	if srcPath == "" {
		return nil
	}

	count := 0
	err = filepath.WalkDir(srcPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcPath, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := "/" + filepath.ToSlash(rel)

		if d.IsDir() {
			if err := lfs.Mkdir(target, 0o755); err != nil {
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		f, err := lfs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
		if err != nil {
			return fmt.Errorf("create %s: %w", target, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", target, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", target, err)
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	if !quiet {
		log.WriteLineString(fmt.Sprintf("mkflash: copied %d files from %s", count, srcPath))
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mkflash: "+format+"\n", args...)
	os.Exit(1)
}
