// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	businessflow "github.com/heraldhq/herald/business_flow"
	"github.com/heraldhq/herald/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AutomationTrigger periodically invokes the campaign automation runner so due
// campaigns execute without an external cron caller.
type AutomationTrigger struct {
	automationFlow businessflow.AutomationFlow
	logger         *log.Logger
	interval       time.Duration
	runTimeout     time.Duration
}

func NewAutomationTrigger(
	automationFlow businessflow.AutomationFlow,
	logCfg config.LoggingConfig,
	interval time.Duration,
) *AutomationTrigger {
	if interval <= 0 {
		interval = time.Minute
	}

	t := &AutomationTrigger{
		automationFlow: automationFlow,
		interval:       interval,
		runTimeout:     10 * time.Minute,
	}
	t.initLogger(logCfg)

	return t
}

// initLogger configures a logger that writes to stdout and, when enabled, a
// rotated automation log file
func (t *AutomationTrigger) initLogger(logCfg config.LoggingConfig) {
	var w io.Writer = os.Stdout
	if logCfg.EnableAutomationLog && logCfg.AutomationLogPath != "" {
		rotated := &lumberjack.Logger{
			Filename:   logCfg.AutomationLogPath,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		}
		w = io.MultiWriter(os.Stdout, rotated)
	}
	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	t.logger = log.New(w, "automation ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the trigger loop in a background goroutine and returns a stop function
func (t *AutomationTrigger) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		t.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (t *AutomationTrigger) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, t.runTimeout)
	defer cancel()

	result, err := t.automationFlow.Run(runCtx, nil)
	if err != nil {
		t.logger.Printf("automation: run failed: %v", err)
		return
	}
	if result.DueCount == 0 {
		return
	}

	t.logger.Printf("automation: run completed due=%d processed=%d failed=%d", result.DueCount, result.Processed, result.Failed)
	for _, c := range result.Campaigns {
		switch {
		case c.Error != "":
			t.logger.Printf("automation: campaign id=%s failed: %s", c.CampaignID, c.Error)
		case c.Skipped:
			t.logger.Printf("automation: campaign id=%s skipped: %s", c.CampaignID, c.SkipReason)
		default:
			t.logger.Printf("automation: campaign id=%s processed recipients=%d generated=%t", c.CampaignID, c.RecipientCount, c.Generated)
		}
	}
}
