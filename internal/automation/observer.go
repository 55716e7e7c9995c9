package automation

import (
	"time"

	"aquastream/internal/models"
)

// Observer receives control-loop measurements. internal/metrics implements it with Prometheus.
type Observer interface {
	ObservePoll(err error, took time.Duration)
	ObserveTickSkipped()
	ObserveReading(r models.SensorReading)
	ObserveEvent(t models.EventType)
	ObserveDispatch(cmd models.Command, on bool, err error)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) ObservePoll(error, time.Duration) {}
func (NopObserver) ObserveTickSkipped() {}
func (NopObserver) ObserveReading(models.SensorReading) {}
func (NopObserver) ObserveEvent(models.EventType) {}
func (NopObserver) ObserveDispatch(models.Command, bool, error) {}
