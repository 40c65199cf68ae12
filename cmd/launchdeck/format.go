package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/avelar/launchdeck/internal/syncclient"
)

const chatTail = 8

// renderSnapshot writes the full-screen view for interactive terminals.
func renderSnapshot(out io.Writer, snap syncclient.Snapshot) {
	tele := snap.Telemetry

	fmt.Fprintf(out, "%s  %s %s\n", snap.TMinus, snap.Phase.Phase.Icon, snap.Phase.Phase.Label)
	if snap.Phase.Final {
		fmt.Fprintln(out, "  final phase")
	} else if !snap.Phase.Pre {
		fmt.Fprintf(out, "  next: %s (%.0f%%)\n", snap.Phase.Next.Label, snap.Phase.Progress*100)
	}

	fmt.Fprintf(out, "ALT %7.1f km  VEL %5.2f km/s  ACC %4.1f g  FUEL %5.1f%%  THR %3.0f%%\n",
		tele.AltitudeKm, tele.VelocityKmS, tele.AccelerationG, tele.FuelRemainingPct, tele.ThrottlePct)
	fmt.Fprintf(out, "Q %5.1f kPa%s  stage: %s  fairing: %s\n",
		tele.DynamicPressureKPa, maxQTag(tele.MaxQ), tele.StageStatus, tele.FairingStatus)

	if snap.Weather != nil {
		fmt.Fprintf(out, "WX [%s] %s (wind %.0f kts)\n", strings.ToUpper(snap.Weather.Status), snap.Weather.Summary, snap.Weather.WindKts)
	}
	if line := formatReactions(snap.ReactionTotals); line != "" {
		fmt.Fprintf(out, "Reactions: %s\n", line)
	}

	for _, p := range snap.Polls {
		state := "open"
		if !p.Open {
			state = "closed"
		}
		fmt.Fprintf(out, "Poll %d (%s): %s\n", p.ID, state, p.Question)
		for _, o := range p.Options {
			marker := " "
			if p.Voted && p.VotedPosition == o.Position {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %d. %s — %d\n", marker, o.Position, o.Label, o.Votes)
		}
	}

	fmt.Fprintln(out, strings.Repeat("-", 60))
	chat := snap.Chat
	if len(chat) > chatTail {
		chat = chat[len(chat)-chatTail:]
	}
	for _, e := range chat {
		fmt.Fprintln(out, formatChatEntry(e))
	}

	if snap.CooldownSeconds > 0 {
		fmt.Fprintf(out, "[writes paused %.0fs]\n", snap.CooldownSeconds)
	}
	if snap.LastRejection != "" {
		fmt.Fprintf(out, "[rejected: %s]\n", snap.LastRejection)
	}
}

// renderLine produces the one-line-per-tick view for piped output.
func renderLine(snap syncclient.Snapshot) string {
	tele := snap.Telemetry
	parts := []string{
		snap.TMinus,
		snap.Phase.Phase.Label,
		fmt.Sprintf("alt=%.1fkm vel=%.2fkm/s fuel=%.1f%%", tele.AltitudeKm, tele.VelocityKmS, tele.FuelRemainingPct),
		fmt.Sprintf("chat=%d", len(snap.Chat)),
	}
	if tele.MaxQ {
		parts = append(parts, "MAX-Q")
	}
	if snap.Weather != nil {
		parts = append(parts, "wx="+snap.Weather.Status)
	}
	if snap.CooldownSeconds > 0 {
		parts = append(parts, fmt.Sprintf("cooldown=%.0fs", snap.CooldownSeconds))
	}
	return strings.Join(parts, "  ")
}

// formatChatEntry renders one chat line; provisional entries carry a pending
// marker until the server confirms them.
func formatChatEntry(e syncclient.ChatEntry) string {
	if e.Provisional != nil {
		return fmt.Sprintf("[%s] %s: %s (sending...)",
			e.Provisional.PendingSince.Format("15:04:05"), e.Provisional.Handle, truncate(e.Provisional.Body, 200))
	}
	m := e.Confirmed
	return fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format("15:04:05"), m.Handle, truncate(m.Body, 200))
}

// formatReactions renders totals in descending count order for stable output.
func formatReactions(totals map[string]int64) string {
	if len(totals) == 0 {
		return ""
	}
	type pair struct {
		emoji string
		count int64
	}
	pairs := make([]pair, 0, len(totals))
	for e, c := range totals {
		pairs = append(pairs, pair{e, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].emoji < pairs[j].emoji
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s %d", p.emoji, p.count)
	}
	return strings.Join(parts, "  ")
}

func maxQTag(on bool) string {
	if on {
		return " (MAX-Q)"
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
