//go:build !tinygo

// Command sertap taps a serial device into an OSI pipe and drains it to
// stdout. The reader thread and the draining loop meet only through the
// pipe's blocking helpers and callbacks.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"

	"ember/hal"
	"ember/osi"
)

func main() {
	var (
		device = flag.String("dev", "/dev/ttyUSB0", "Serial device.")
		baud   = flag.Int("baud", 115200, "Baud rate.")
		stats  = flag.Bool("stats", false, "Report transfer counters on exit.")
	)
	flag.Parse()

	log := hal.NewHostLogger()
	ser, err := hal.OpenSerial(*device, *baud, 0)
	if err != nil {
		log.WriteLineString(fmt.Sprintf("sertap: %v", err))
		os.Exit(1)
	}

	pipe := osi.PipeCreate(4096)
	if pipe == nil {
		log.WriteLineString("sertap: cannot create pipe")
		os.Exit(1)
	}

	var arrivals atomic.Int64
	pipe.SetReaderCallback(osi.PipeEventRxArrived, func(any, uint32) {
		arrivals.Add(1)
	}, nil)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		pipe.Stop()
	}()

	osi.ThreadCreate("sertap_rx", func(any) {
		buf := make([]byte, 512)
		for {
			n, err := ser.Read(buf)
			if n > 0 {
				if pipe.WriteAll(buf[:n], osi.WaitForever) < 0 {
					return
				}
			}
			if err != nil {
				pipe.SetDataEnd()
				return
			}
		}
	}, nil, osi.PriorityAboveNormal, 0, 0)

	total := 0
	buf := make([]byte, 512)
	for {
		n := pipe.Read(buf)
		if n < 0 {
			break
		}
		if n == 0 {
			// Poll so a producer-done pipe is noticed even though the
			// flag alone wakes nobody.
			pipe.WaitReadAvail(200)
			continue
		}
		total += n
		_, _ = os.Stdout.Write(buf[:n])
	}

	if *stats {
		log.WriteLineString(fmt.Sprintf("sertap: %d bytes in %d bursts", total, arrivals.Load()))
	}
}
