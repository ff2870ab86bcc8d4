// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"shortreel/internal/scheduler"
	"shortreel/internal/tasks"
	"shortreel/internal/types"
	"shortreel/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCapabilities outputs the derived capability state of a run.
func (p *Printer) PrintCapabilities(caps workflow.Capabilities) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Current step: %s\n\n", caps.CurrentStep))

	flag := func(name string, v bool) {
		mark := " "
		if v {
			mark = "x"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", mark, name))
	}
	flag("generate dialogue", caps.CanGenerateDialogue)
	flag("edit dialogue", caps.CanEditDialogue)
	flag("generate audio", caps.CanGenerateAudio)
	flag("generate images", caps.CanGenerateImages)
	flag("generate video", caps.CanGenerateVideo)
	flag("upload", caps.CanUpload)
	flag("fast upload", caps.CanFastUpload)
	flag("delete from youtube", caps.CanDeleteYouTube)

	p.printBox("RUN CAPABILITIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDialogue outputs a readable view of the generated script.
func (p *Printer) PrintDialogue(d *types.Dialogue) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", d.Title))
	if len(d.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags:  %s\n", strings.Join(d.Tags, ", ")))
	}
	sb.WriteString("\n")

	count := min(len(d.Lines), maxItemsToShow)
	for i := 0; i < count; i++ {
		line := d.Lines[i]
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", line.Index+1, line.Speaker, line.Text))
	}
	if len(d.Lines) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(d.Lines)-maxItemsToShow))
	}

	p.printBox("DIALOGUE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTask outputs a finished task record.
func (p *Printer) PrintTask(rec tasks.Record) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Type:    %s\n", rec.Type))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", rec.Status))
	if rec.Message != "" {
		sb.WriteString(fmt.Sprintf("Message: %s\n", rec.Message))
	}
	if rec.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:   %s\n", rec.Error))
	}
	if rec.FinishedAt != nil {
		sb.WriteString(fmt.Sprintf("Took:    %s\n", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond)))
	}

	p.printBox(fmt.Sprintf("TASK %s", strings.ToUpper(string(rec.Type))), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSchedulerState outputs the scheduler's last trigger outcome.
func (p *Printer) PrintSchedulerState(state scheduler.State, running bool) {
	var sb strings.Builder

	if running {
		sb.WriteString("Status:  executing\n")
	} else {
		sb.WriteString("Status:  idle\n")
	}
	if state.LastTriggeredAt != nil {
		sb.WriteString(fmt.Sprintf("Last:    %s (%s)\n", state.LastTriggeredAt.Format(time.RFC3339), state.LastOutcome))
	}
	if state.NextTriggerAt != nil {
		sb.WriteString(fmt.Sprintf("Next:    %s\n", state.NextTriggerAt.Format(time.RFC3339)))
	}

	if len(state.CreatedRunIDs) > 0 {
		sb.WriteString(fmt.Sprintf("\nRuns created: %d\n", len(state.CreatedRunIDs)))
		count := min(len(state.CreatedRunIDs), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", state.CreatedRunIDs[i]))
		}
	}
	if len(state.SlotErrors) > 0 {
		sb.WriteString("\nSlot errors:\n")
		for _, msg := range state.SlotErrors {
			sb.WriteString(fmt.Sprintf("  • %s\n", msg))
		}
	}

	p.printBox("SCHEDULER", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPublishRecord outputs where the video went.
func (p *Printer) PrintPublishRecord(rec *types.PublishRecord) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Platform: %s\n", rec.Platform))
	sb.WriteString(fmt.Sprintf("Video:    %s\n", rec.VideoID))
	if rec.URL != "" {
		sb.WriteString(fmt.Sprintf("URL:      %s\n", rec.URL))
	}
	sb.WriteString(fmt.Sprintf("Status:   %s\n", rec.Status))
	if rec.ScheduledAt != nil {
		sb.WriteString(fmt.Sprintf("Goes live: %s\n", rec.ScheduledAt.Format(time.RFC3339)))
	}

	p.printBox("PUBLISHED", strings.TrimSuffix(sb.String(), "\n"))
}
