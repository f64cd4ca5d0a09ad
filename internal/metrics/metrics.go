// Package metrics implements the manager's metrics seam on top of
// prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fbettag/softap-manager/internal/softap"
)

// Recorder implements softap.Metrics.
type Recorder struct {
	startResults           *prometheus.CounterVec
	associatedStations     *prometheus.GaugeVec
	channelSwitches        *prometheus.CounterVec
	upChanges              *prometheus.CounterVec
	bandPrefViolations     prometheus.Counter
}

// NewRecorder registers the soft-AP collectors on reg and returns the
// recorder. Pass prometheus.DefaultRegisterer outside of tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		startResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "softap",
			Name:      "start_results_total",
			Help:      "Soft AP start attempts by outcome and failure reason.",
		}, []string{"success", "reason"}),
		associatedStations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "softap",
			Name:      "associated_stations",
			Help:      "Currently associated stations per target mode.",
		}, []string{"mode"}),
		channelSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "softap",
			Name:      "channel_switches_total",
			Help:      "Channel switch events by bandwidth and target mode.",
		}, []string{"bandwidth", "mode"}),
		upChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "softap",
			Name:      "interface_up_changes_total",
			Help:      "Interface up/down transitions per target mode.",
		}, []string{"up", "mode"}),
		bandPrefViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "softap",
			Name:      "band_preference_violations_total",
			Help:      "Times the operating channel fell outside the user's band preference.",
		}),
	}
	reg.MustRegister(r.startResults, r.associatedStations, r.channelSwitches,
		r.upChanges, r.bandPrefViolations)
	return r
}

func (r *Recorder) IncrementSoftApStartResult(success bool, reason softap.FailureReason) {
	label := "NONE"
	if !success {
		label = reason.String()
	}
	r.startResults.WithLabelValues(strconv.FormatBool(success), label).Inc()
}

func (r *Recorder) AddNumAssociatedStationsChangedEvent(count int, mode softap.TargetMode) {
	r.associatedStations.WithLabelValues(mode.String()).Set(float64(count))
}

func (r *Recorder) AddChannelSwitchedEvent(frequencyMHz int, bandwidth softap.Bandwidth, mode softap.TargetMode) {
	r.channelSwitches.WithLabelValues(bandwidth.String(), mode.String()).Inc()
}

func (r *Recorder) AddUpChangedEvent(up bool, mode softap.TargetMode) {
	r.upChanges.WithLabelValues(strconv.FormatBool(up), mode.String()).Inc()
}

func (r *Recorder) IncrementUserBandPreferenceViolation() {
	r.bandPrefViolations.Inc()
}
