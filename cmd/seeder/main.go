package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ingest"
)

var notes = []string{
	"The backup job runs nightly at 03:00 and writes to the NAS share under /volume1/backups.",
	"Router admin lives on 192.168.1.1 and the guest network is isolated from the lab VLAN.",
	"Grafana dashboards are provisioned from the monitoring repo, never edited by hand.",
	"The UPS battery was replaced in March and holds about nine minutes at full load.",
	"Certificates renew through the DNS challenge because port 80 is closed at the firewall.",
	"Postgres autovacuum was tuned down after the January table bloat incident.",
	"The spare SSD in the drawer is the one that throws SMART warnings, do not reuse it.",
	"Wireguard peers are listed in the network notebook with their allowed IP ranges.",
	"The rack fans spin up once intake temperature passes thirty degrees.",
	"Docker volumes for the wiki get snapshotted before every upgrade.",
	"The label printer only speaks to the print server over USB, not the network.",
	"Kernel updates on the hypervisor wait for the monthly maintenance window.",
	"The attic access point reboots itself every Sunday at dawn, cause still unknown.",
	"Syslog forwarding from the switch drops messages when the link renegotiates.",
	"Sourdough starter doubles in about five hours at room temperature.",
	"The tomato beds need feeding every second week once the first fruit sets.",
	"Basil cuttings root in water within ten days on the kitchen windowsill.",
	"The pizza stone wants a full hour of preheat at the oven's highest setting.",
	"Garlic planted in October was ready to lift by midsummer.",
	"The compost runs hot for three days after fresh grass clippings go in.",
	"Cold brew steeps for eighteen hours in the fridge at a one to eight ratio.",
	"The apple tree by the fence fruits heavily only in alternate years.",
	"Lacto ferments bubble over in warm weather, leave two inches of headroom.",
	"The cast iron pan gets a thin coat of oil after every wash, no soap needed.",
	"Rhubarb stops being worth pulling once the stalks turn thin in July.",
	"The bread knife goes to the grinder on the market square, not the pull-through.",
	"Chilli seeds from the red lantern plant germinate poorly below twenty degrees.",
	"Stock freezes flat in bags and stacks like books in the bottom drawer.",
	"Chapter four of the distributed systems book covers quorum reads and is worth rereading.",
	"The survey paper on approximate nearest neighbour search compares graph and quantisation methods.",
	"The museum's map archive digitised the 1898 harbour survey last spring.",
	"The podcast episode on soil chemistry explained why the hydrangeas changed colour.",
	"Lamport's clocks paper is short, the follow-up on vector clocks is the longer read.",
	"The library's interloan desk can source theses from the polytechnic archive.",
	"The birdwatching log says the swifts arrived on the ninth this year, a week early.",
	"The documentary about the canal network had a segment on the old pumping station.",
	"Write-ahead logging chapters pair well with the recovery notes from the seminar.",
	"The translation of the beekeeping manual uses imperial measures throughout.",
	"Margin notes in the secondhand atlas mark lighthouses that no longer operate.",
	"The lecture series on typography spends two sessions on hinting alone.",
	"The ferry to the outer island runs twice daily in winter, weather permitting.",
	"Platform two at the central station is the one with the good coffee kiosk.",
	"The coastal path floods at spring tide between the third and fourth marker.",
	"Museum entry is free on the first Thursday of the month after five.",
	"The mountain hut takes card payments now but the honesty fridge is cash only.",
	"Overnight trains release their cheapest berths ninety days ahead.",
	"The campsite by the weir has the quietest pitches along the tree line.",
	"Border pharmacies stock the allergy tablets that need a prescription at home.",
	"The viewpoint above the quarry is a forty minute walk from the last bus stop.",
	"Street parking near the velodrome is free after six except on race nights.",
	"The bakery at the harbour sells yesterday's loaves at half price before nine.",
	"High tide at the causeway shifts almost an hour later each day.",
	"The observatory's public nights are fortnightly and booked out a month ahead.",
	"The old signal box on the heritage line opens to visitors on steam days only.",
	"The chandlery will swap gas bottles even for brands they do not stock.",
	"The north face car park ices over first, the forestry track stays passable longer.",
}

var seedFileName = flag.String("src", "", "file of seed notes")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// queueHighWater pauses seeding while this many jobs sit queued.
const queueHighWater = 64

// seedNotes ingests each line as its own note document, pausing while the
// processing queue runs deep. Lines whose content is already in the library
// are skipped.
func seedNotes(ctx context.Context, lib *corpus.Library, source iter.Seq[string]) (int, int, error) {
	ingested, skipped := 0, 0

	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for lib.QueueDepth() >= queueHighWater {
			time.Sleep(100 * time.Millisecond)
		}

		_, err := lib.Ingest(ctx, line, ingest.IngestOptions{})
		if errors.Is(err, ingest.ErrDuplicateDocument) {
			skipped++
			continue
		}
		if err != nil {
			return ingested, skipped, err
		}
		ingested++
	}

	return ingested, skipped, nil
}

func main() {
	lib, err := corpus.NewLibrary("./knowledge_db")
	if err != nil {
		panic(err)
	}
	defer lib.Close()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(notes)
	}

	ingested, skipped, err := seedNotes(ctx, lib, source)
	if err != nil {
		panic(err)
	}

	// Closing the library releases the worker pool, so let queued
	// documents finish first.
	for lib.QueueDepth() > 0 {
		time.Sleep(100 * time.Millisecond)
	}

	slog.Info("seeding finished", "ingested", ingested, "skipped", skipped)
}
