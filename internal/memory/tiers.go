package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/tsaristov/boop-final-prototype/internal/config"
	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

const condenseSystemPrompt = `You condense conversation history into durable
memory. Write a compact third-person summary keeping names, preferences,
decisions, and facts. No filler, no commentary.`

// Condenser rolls messages up through the memory tiers when per-tier
// thresholds are reached: messages condense into short memories, short
// into mid, mid into long. A cron schedule sweeps periodically.
type Condenser struct {
	store *Store
	llm   gateway.Client
	cfg   config.MemoryConfig
	cron  *cron.Cron
}

func NewCondenser(store *Store, llm gateway.Client, cfg config.MemoryConfig) *Condenser {
	return &Condenser{store: store, llm: llm, cfg: cfg}
}

// Start schedules periodic sweeps. The schedule string is in cron syntax,
// "@every 10m" by default.
func (c *Condenser) Start() error {
	c.cron = cron.New()
	_, err := c.cron.AddFunc(c.cfg.SweepSchedule, func() {
		if err := c.Sweep(context.Background()); err != nil {
			logging.Memory("sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", c.cfg.SweepSchedule, err)
	}
	c.cron.Start()
	logging.Memory("condenser sweeping on schedule %q", c.cfg.SweepSchedule)
	return nil
}

// Stop halts the sweep schedule, waiting for a running sweep to finish.
func (c *Condenser) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

// Sweep condenses every user's tiers that are over threshold.
func (c *Condenser) Sweep(ctx context.Context) error {
	users, err := c.store.Users()
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := c.CondenseUser(ctx, user); err != nil {
			logging.Memory("condensation for %s failed: %v", user, err)
		}
	}
	return nil
}

// CondenseUser runs the three tier rollups for one user, in order, so a
// sweep can cascade messages all the way to a long memory.
func (c *Condenser) CondenseUser(ctx context.Context, userID string) error {
	if err := c.condenseMessages(ctx, userID); err != nil {
		return err
	}
	if err := c.condenseTier(ctx, userID, TierShort, TierMid, c.cfg.MidThreshold); err != nil {
		return err
	}
	return c.condenseTier(ctx, userID, TierMid, TierLong, c.cfg.LongThreshold)
}

// condenseMessages summarizes a full message window into one short memory
// and clears the window.
func (c *Condenser) condenseMessages(ctx context.Context, userID string) error {
	count, err := c.store.MessageCount(userID)
	if err != nil {
		return err
	}
	if count < c.cfg.ShortThreshold {
		return nil
	}

	messages, err := c.store.RecentMessages(userID, count)
	if err != nil {
		return err
	}

	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	summary, err := c.llm.CompleteWithSystem(ctx, condenseSystemPrompt,
		"Summarize this conversation:\n\n"+transcript.String())
	if err != nil {
		return fmt.Errorf("message condensation: %w", err)
	}

	if err := c.store.AddMemory(userID, TierShort, strings.TrimSpace(summary)); err != nil {
		return err
	}
	if err := c.store.DeleteMessages(userID); err != nil {
		return err
	}

	logging.Memory("condensed %d messages into a short memory for %s", count, userID)
	return nil
}

// condenseTier summarizes a full tier into one memory of the next tier and
// deletes the condensed entries.
func (c *Condenser) condenseTier(ctx context.Context, userID, from, to string, threshold int) error {
	memories, err := c.store.MemoriesByTier(userID, from)
	if err != nil {
		return err
	}
	if threshold <= 0 || len(memories) < threshold {
		return nil
	}

	var parts []string
	ids := make([]int64, len(memories))
	for i, m := range memories {
		parts = append(parts, m.Content)
		ids[i] = m.ID
	}

	summary, err := c.llm.CompleteWithSystem(ctx, condenseSystemPrompt,
		"Merge these summaries into one:\n\n- "+strings.Join(parts, "\n- "))
	if err != nil {
		return fmt.Errorf("%s tier condensation: %w", from, err)
	}

	if err := c.store.AddMemory(userID, to, strings.TrimSpace(summary)); err != nil {
		return err
	}
	if err := c.store.DeleteMemories(ids); err != nil {
		return err
	}

	logging.Memory("condensed %d %s memories into one %s memory for %s", len(ids), from, to, userID)
	return nil
}

// Context assembles a user's memory context for the persona prompt:
// long-term first, then mid, short, knowledge, and the live message
// window.
func (c *Condenser) Context(userID string, window int) (string, error) {
	var b strings.Builder

	for _, tier := range []string{TierLong, TierMid, TierShort} {
		memories, err := c.store.MemoriesByTier(userID, tier)
		if err != nil {
			return "", err
		}
		for _, m := range memories {
			fmt.Fprintf(&b, "[%s memory] %s\n", tier, m.Content)
		}
	}

	facts, err := c.store.Knowledge(userID)
	if err != nil {
		return "", err
	}
	for _, fact := range facts {
		fmt.Fprintf(&b, "[knowledge] %s\n", fact)
	}

	messages, err := c.store.RecentMessages(userID, window)
	if err != nil {
		return "", err
	}
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	return b.String(), nil
}
