// Package bot assembles the engines and adapts them to Discord.
package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/internal/scheduler"
	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/config"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/mqtt"
)

const manualSweepTimeout = 30 * time.Minute

// Publisher receives engine events for the status bus
type Publisher interface {
	PublishEvent(kind string, data any)
}

// Services holds everything commands and events need
type Services struct {
	Config       *config.Config
	Store        *store.Store
	Host         engine.Host
	Leveling     *engine.Leveling
	Messages     *engine.Messages
	Warnings     *engine.Warnings
	Verification *engine.Verification
	Greeter      *engine.Greeter
	Settings     *engine.Settings
	Scheduler    *scheduler.Scheduler
	Dispatcher   *Dispatcher
	// Backend names the persistence backend and reports whether it is up
	Backend func() (string, bool)

	publisher Publisher
}

// Deps are the collaborators New wires together
type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Host    engine.Host
	Lookup  engine.ProfileLookup
	Sender  Sender
	Locker  scheduler.Locker
	Backend func() (string, bool)
}

// New builds the engines and the scheduler
func New(d Deps) *Services {
	cfg := d.Config

	s := &Services{
		Config:     cfg,
		Store:      d.Store,
		Host:       d.Host,
		Backend:    d.Backend,
		Dispatcher: NewDispatcher(d.Sender),
	}

	s.Leveling = engine.NewLeveling(d.Store)
	s.Messages = engine.NewMessages(d.Store, s.Leveling, cfg.CommandPrefix)
	s.Messages.OnLevelUp = func(ev engine.LevelUpEvent) { s.Publish(mqtt.TopicLevelUp, ev) }
	s.Warnings = engine.NewWarnings(d.Store, d.Host)
	s.Verification = engine.NewVerification(d.Store, d.Host, d.Lookup, engine.VerificationOptions{
		LookupTimeout:    cfg.LookupTimeout,
		SweepRate:        cfg.SweepRate,
		SweepConcurrency: cfg.SweepConcurrency,
	})
	s.Greeter = engine.NewGreeter(d.Store)
	s.Settings = engine.NewSettings(d.Store)

	s.Scheduler = scheduler.New(d.Store, s.Verification, scheduler.Options{
		FlushInterval: cfg.FlushInterval,
		SweepInterval: cfg.SweepInterval,
		Locker:        d.Locker,
		OnSweep:       s.onSweep,
	})

	return s
}

// SetPublisher attaches the status bus. A nil publisher disables events.
func (s *Services) SetPublisher(p Publisher) {
	s.publisher = p
}

// Publish sends an event when a publisher is attached
func (s *Services) Publish(kind string, data any) {
	if s.publisher != nil {
		s.publisher.PublishEvent(kind, data)
	}
}

func (s *Services) onSweep(r engine.SweepReport) {
	logger.Info(fmt.Sprintf("Sweep %s: %d records, %d updated, %d unchanged, %d skipped, %d failed",
		r.ID, r.Total, r.Updated, r.Unchanged, r.Skipped, r.Failed), "Sweep")

	s.Publish(mqtt.TopicSweep, r)

	if r.Updated > 0 {
		s.Store.FlushAsync()
	}
}

// Summary is the short form of a sweep report sent over MQTT requests
type Summary struct {
	ID        string    `json:"id"`
	Total     int       `json:"total"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Finished  time.Time `json:"finishedAt"`
}

func summarize(r engine.SweepReport) Summary {
	return Summary{
		ID:        r.ID,
		Total:     r.Total,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
		Finished:  r.FinishedAt,
	}
}

// SweepRequest handles the "sweep" MQTT request topic. It starts a sweep
// and answers at once; the finished report is published as a sweep event.
func (s *Services) SweepRequest(map[string]any) (any, error) {
	if err := s.Scheduler.TriggerSweep(manualSweepTimeout, nil); err != nil {
		if errors.Is(err, scheduler.ErrSweepRunning) {
			return nil, errors.New("a sweep is already running")
		}
		return nil, err
	}
	return map[string]any{"status": "started"}, nil
}

// StatusRequest handles the "status" MQTT request topic
func (s *Services) StatusRequest(map[string]any) (any, error) {
	resp := map[string]any{
		"state":    s.Store.Stats(),
		"sweeping": s.Scheduler.Sweeping(),
	}
	if last, ok := s.Scheduler.LastSweep(); ok {
		resp["lastSweep"] = summarize(last)
	}
	return resp, nil
}
