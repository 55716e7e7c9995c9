package automation

import (
	"math"
	"time"

	"aquastream/internal/models"

	"github.com/dustin/go-humanize"
)

// Input is everything one rule evaluation may look at.
type Input struct {
	Reading  models.SensorReading
	Previous models.ActuatorState // snapshot before this tick's poll
	Current  models.ActuatorState // freshly fetched
	Settings models.AutomationSettings
	State    models.AutomationState
	Now      time.Time
}

// Decision is the outcome of Evaluate. Cause is set only when WaterChange is.
type Decision struct {
	WaterChange bool
	Cause       models.Metric
	Feed        bool
	Breaches    []models.Metric
}

// Evaluate applies the water-change and feeder rules. It has no side effects;
// committing clocks and dispatching is the controller's job.
func Evaluate(in Input) Decision {
	var d Decision
	d.Breaches = Breaches(in.Reading, in.Settings)

	if in.Settings.Enabled &&
		len(d.Breaches) > 0 &&
		in.Previous.PumpsIdle() && in.Current.PumpsIdle() &&
		CooldownEligible(in.State.LastActivation, in.Now, in.Settings.Cooldown()) {
		d.WaterChange = true
		d.Cause = d.Breaches[0]
	}

	if in.Settings.FeederEnabled && FeedingDue(in.State.LastFeeding, in.Now, in.Settings.FeederInterval()) {
		d.Feed = true
	}
	return d
}

// OutOfRange treats exactly 0 as "no data", never as a breach.
func OutOfRange(v, min, max float64) bool {
	return v != 0 && (v < min || v > max)
}

// Breaches lists out-of-range metrics in trigger priority order: temp, ph, tds.
func Breaches(r models.SensorReading, s models.AutomationSettings) []models.Metric {
	var out []models.Metric
	if OutOfRange(r.Temperature, s.TempMin, s.TempMax) {
		out = append(out, models.MetricTemp)
	}
	if OutOfRange(r.PH, s.PHMin, s.PHMax) {
		out = append(out, models.MetricPH)
	}
	if OutOfRange(r.TDS, s.TDSMin, s.TDSMax) {
		out = append(out, models.MetricTDS)
	}
	return out
}

// CooldownEligible: a zero last activation is always eligible; otherwise the
// full period must have elapsed (inclusive).
func CooldownEligible(last, now time.Time, period time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= period
}

// FeedingDue: a zero last feeding is due; otherwise strictly more than interval must have elapsed.
func FeedingDue(last, now time.Time, interval time.Duration) bool {
	return last.IsZero() || now.Sub(last) > interval
}

// Status is the dashboard view of the rule engine.
type Status struct {
	Enabled          bool            `json:"enabled"`
	Breaches         []models.Metric `json:"breaches"`
	CooldownActive   bool            `json:"cooldown_active"`
	LastActivation   *time.Time      `json:"last_activation,omitempty"`
	NextEligibleAt   *time.Time      `json:"next_eligible_at,omitempty"`
	RemainingMinutes int             `json:"remaining_minutes"`
	Remaining        string          `json:"remaining,omitempty"` // e.g. "44 minutes from now"
	FeederEnabled    bool            `json:"feeder_enabled"`
	LastFeeding      *time.Time      `json:"last_feeding,omitempty"`
	NextFeedingAt    *time.Time      `json:"next_feeding_at,omitempty"`
}

// BuildStatus reports cooldown and feeder timing as of now.
func BuildStatus(s models.AutomationSettings, st models.AutomationState, r models.SensorReading, now time.Time) Status {
	out := Status{
		Enabled:       s.Enabled,
		Breaches:      Breaches(r, s),
		FeederEnabled: s.FeederEnabled,
	}
	if out.Breaches == nil {
		out.Breaches = []models.Metric{}
	}

	if !st.LastActivation.IsZero() {
		last := st.LastActivation
		out.LastActivation = &last
		if !CooldownEligible(last, now, s.Cooldown()) {
			next := last.Add(s.Cooldown())
			out.CooldownActive = true
			out.NextEligibleAt = &next
			out.RemainingMinutes = int(math.Ceil(next.Sub(now).Minutes()))
			out.Remaining = humanize.RelTime(next, now, "ago", "from now")
		}
	}

	if !st.LastFeeding.IsZero() {
		last := st.LastFeeding
		next := last.Add(s.FeederInterval())
		out.LastFeeding = &last
		out.NextFeedingAt = &next
	}
	return out
}
