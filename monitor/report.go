package monitor

import (
	"fmt"
	"strings"
)

// Render formats the report as the fixed-layout text block printed by the
// CLI and pasted into the desk chat. Section order never changes and all
// map-derived lines are sorted, so two renders of the same report are
// byte-identical.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "RISK REPORT  %s\n", r.Time.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "overall risk level: %s\n", r.Level)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	b.WriteString("\nVALUE AT RISK\n")
	fmt.Fprintf(&b, "  %-12s %10s %10s %10s %10s\n", "method", "VaR95", "CVaR95", "VaR99", "CVaR99")
	renderVaRRow(&b, "historical", r.Historical.VaR95, r.Historical.CVaR95, r.Historical.VaR99, r.Historical.CVaR99)
	renderVaRRow(&b, "parametric", r.Parametric.VaR95, r.Parametric.CVaR95, r.Parametric.VaR99, r.Parametric.CVaR99)
	if r.MonteCarlo != nil {
		renderVaRRow(&b, "monte_carlo", r.MonteCarlo.VaR95, r.MonteCarlo.CVaR95, r.MonteCarlo.VaR99, r.MonteCarlo.CVaR99)
	}

	if len(r.Stress) > 0 {
		b.WriteString("\nSTRESS SCENARIOS\n")
		for _, s := range r.Stress {
			marker := " "
			if r.Worst != nil && s.Scenario == r.Worst.Scenario {
				marker = "*"
			}
			fmt.Fprintf(&b, " %s%-14s pnl %14.2f  (%6.2f%%)  worst: %s %.2f\n",
				marker, s.Scenario, s.TotalPnL, s.PctOfPortfolio*100, s.WorstInstrument, s.WorstPnL)
		}
	}

	if len(r.Limits) > 0 {
		b.WriteString("\nLIMIT UTILIZATION\n")
		for _, c := range r.Limits {
			status := "ok"
			if c.Breached {
				status = "BREACH"
			}
			detail := ""
			if c.Detail != "" {
				detail = "  [" + c.Detail + "]"
			}
			fmt.Fprintf(&b, "  %-24s %s %6.1f%%  %s%s\n",
				c.Name, utilizationBar(c.Utilization), c.Utilization, status, detail)
		}
		fmt.Fprintf(&b, "  overall limit status: %s\n", r.LimitStatus)
	}

	if r.Budget != nil && !r.Budget.Skipped {
		b.WriteString("\nRISK BUDGET\n")
		fmt.Fprintf(&b, "  allocated %.3f of %.3f (%.1f%%), available %.3f\n",
			r.Budget.Allocated, r.Budget.TotalBudget, r.Budget.UtilizationPct, r.Budget.Available)
		for _, p := range r.Budget.Positions {
			flag := ""
			if p.Breached {
				flag = "  BREACH"
			}
			fmt.Fprintf(&b, "  position    %-12s %.3f / %.3f%s\n", p.Name, p.Contribution, p.Limit, flag)
		}
		for _, c := range r.Budget.AssetClasses {
			flag := ""
			if c.Breached {
				flag = "  BREACH"
			}
			fmt.Fprintf(&b, "  asset class %-12s %.3f / %.3f%s\n", c.Name, c.Contribution, c.Limit, flag)
		}
		if r.Budget.RoomToAdd {
			b.WriteString("  room to add risk\n")
		} else {
			b.WriteString("  no room to add risk\n")
		}
	}

	if r.BreakerRan {
		b.WriteString("\nCIRCUIT BREAKER\n")
		fmt.Fprintf(&b, "  state %s  drawdown %.2f%%  exposure scale %.0f%%  hwm %.2f\n",
			r.Breaker.State, r.Breaker.Drawdown*100, r.Breaker.ExposureScale*100, r.Breaker.HighWaterMark)
	}

	events := r.TrackerEvents
	if r.BreakerRan {
		events = append(r.Breaker.Events, events...)
	}
	if len(events) > 0 {
		b.WriteString("\nEVENTS THIS CYCLE\n")
		for _, ev := range events {
			key := ""
			if ev.Key != "" {
				key = " " + ev.Key
			}
			fmt.Fprintf(&b, "  %-18s%s  %s -> %s  %s\n", ev.Type, key, ev.From, ev.To, ev.Action)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\nWARNINGS\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	return b.String()
}

func renderVaRRow(b *strings.Builder, name string, var95, cvar95, var99, cvar99 float64) {
	fmt.Fprintf(b, "  %-12s %9.2f%% %9.2f%% %9.2f%% %9.2f%%\n",
		name, var95*100, cvar95*100, var99*100, cvar99*100)
}

// utilizationBar renders a 20-cell bar, capped at 100%.
func utilizationBar(pct float64) string {
	cells := int(pct / 5)
	if cells > 20 {
		cells = 20
	}
	if cells < 0 {
		cells = 0
	}
	return "[" + strings.Repeat("#", cells) + strings.Repeat(".", 20-cells) + "]"
}
