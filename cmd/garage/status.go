package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/garage.gate/internal/db"
	"github.com/banshee-data/garage.gate/internal/garage"
	"github.com/banshee-data/garage.gate/internal/httputil"
)

// runStatus implements "garage status": it queries a running controller's
// API and prints the current frame and counters.
func runStatus(ctx context.Context, out io.Writer, client httputil.HTTPClient, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "http://localhost:8080", "Base URL of the running controller")
	events := fs.Int("events", 0, "Also list the N most recent journal events")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	base := strings.TrimRight(*addr, "/")

	var st garage.Status
	if err := httputil.GetJSON(ctx, client, base+"/api/status", &st); err != nil {
		return err
	}
	fmt.Fprintf(out, "display:  %s\n", st.Frame)
	fmt.Fprintf(out, "free:     %d of %d\n", st.FreeSpaces, st.TotalSpaces)
	fmt.Fprintf(out, "entries:  %d  exits: %d  turned away: %d\n", st.Entries, st.Exits, st.Rejections)
	if st.OverCount {
		fmt.Fprintln(out, "warning:  free count exceeds capacity (more exits than entries)")
	}
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "updated:  %s (%s)\n", st.UpdatedAt.Format(time.RFC3339), st.LastEvent)
	}

	if *events <= 0 {
		return nil
	}
	var recent []db.GateEvent
	if err := httputil.GetJSON(ctx, client, fmt.Sprintf("%s/api/events?limit=%d", base, *events), &recent); err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, e := range recent {
		fmt.Fprintf(out, "%s  %-8s  %s\n", e.RecordedAt.Format(time.RFC3339), e.Kind, e.Frame)
	}
	return nil
}
