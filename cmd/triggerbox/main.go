package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveobbayi/ardour/triggerbox"
)

func main() {
	var (
		bpm     = flag.Float64("bpm", 120, "")
		files   = flag.String("sounds", "*.wav", "")
		run     = flag.String("run", "", "")
		midiArg = flag.String("midi", "", "MIDI input port name prefix; empty takes the first available port")
		seed    = flag.Uint64("seed", 1, "follow-action PRNG seed")
	)
	flag.Parse()

	box := triggerbox.NewTriggerBox(triggerbox.DataAudio, *seed)
	tempo := triggerbox.ConstantTempoMap{BPM: *bpm, SampleRate: sampleRate}
	registry := triggerbox.NewRegionRegistry()

	soundFiles, err := filepath.Glob(*files)
	if err != nil {
		log.Fatal(err)
	}
	for i, path := range soundFiles {
		if i >= box.NumTriggers() {
			box.AddTrigger()
		}
		region, err := triggerbox.LoadFileRegion(path, "")
		if err != nil {
			log.Fatal(err)
		}
		registry.Put(region)
		if err := box.SetRegion(i, region); err != nil {
			log.Fatal(err)
		}
	}

	midiIn, err := OpenMIDIInput(*midiArg)
	if err != nil {
		log.Printf("triggerbox: MIDI input unavailable: %v", err)
		midiIn = &MIDIInput{queue: triggerbox.NewRingQueue[triggerbox.MIDIEvent](1)}
	} else {
		defer midiIn.Close()
	}

	host, err := NewHost(box, tempo, midiIn, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer host.Stop()

	if err := host.Start(); err != nil {
		log.Fatal(err)
	}

	e := &env{box: box, registry: registry}

	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			log.Fatal(err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if result, err := e.eval(line); err != nil {
				log.Fatal(err)
			} else if result != "" {
				fmt.Print(result)
			}
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			log.Fatal(err)
		}
	}

	if err := repl(e); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
