package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultEpoch is 2020-01-01T00:00:00Z in milliseconds.
	DefaultEpoch int64 = 1577836800000

	sequenceBits   = 12
	machineBits    = 5
	datacenterBits = 5

	MaxDatacenterID = -1 ^ (-1 << datacenterBits)
	MaxMachineID    = -1 ^ (-1 << machineBits)
	maxSequence     = -1 ^ (-1 << sequenceBits)

	machineShift    = sequenceBits
	datacenterShift = sequenceBits + machineBits
	timestampShift  = sequenceBits + machineBits + datacenterBits
)

var (
	// ErrInvalidConfiguration is returned by New when an id is outside [0,31].
	ErrInvalidConfiguration = errors.New("invalid generator configuration")

	// ErrClockRegression is matched by every ClockRegressionError.
	ErrClockRegression = errors.New("clock moved backwards")
)

// ClockRegressionError reports how far the clock went back.
type ClockRegressionError struct {
	Last    int64
	Current int64
}

func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("clock moved backwards: refusing to generate id for %d milliseconds", e.Last-e.Current)
}

func (e *ClockRegressionError) Unwrap() error {
	return ErrClockRegression
}

// Clock returns the current time in milliseconds.
type Clock func() int64

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

// WithEpoch sets the epoch the timestamp bits are measured from.
func WithEpoch(epoch int64) Option {
	return func(g *Generator) {
		g.epoch = epoch
	}
}

// Generator produces 64-bit time-ordered ids: 41 bits of milliseconds since
// the epoch, 5 bits datacenter, 5 bits machine and a 12 bit sequence.
//
// A Generator is safe for concurrent use. Ids from one instance are strictly
// increasing; uniqueness across processes requires distinct
// datacenter/machine pairs.
type Generator struct {
	mu            sync.Mutex
	datacenterID  int64
	machineID     int64
	epoch         int64
	clock         Clock
	sequence      int64
	lastTimestamp int64
}

// New creates a generator for the given datacenter and machine ids.
func New(datacenterID, machineID int64, opts ...Option) (*Generator, error) {
	if datacenterID < 0 || datacenterID > MaxDatacenterID {
		return nil, fmt.Errorf("%w: datacenter id %d not in [0,%d]",
			ErrInvalidConfiguration, datacenterID, MaxDatacenterID)
	}

	if machineID < 0 || machineID > MaxMachineID {
		return nil, fmt.Errorf("%w: machine id %d not in [0,%d]",
			ErrInvalidConfiguration, machineID, MaxMachineID)
	}

	g := &Generator{
		datacenterID:  datacenterID,
		machineID:     machineID,
		epoch:         DefaultEpoch,
		clock:         func() int64 { return time.Now().UnixMilli() },
		lastTimestamp: -1,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// NextID returns the next id. It fails without touching any state when the
// clock reads earlier than the previous call.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()

	if now < g.lastTimestamp {
		return 0, &ClockRegressionError{Last: g.lastTimestamp, Current: now}
	}

	sequence := int64(0)

	if now == g.lastTimestamp {
		sequence = (g.sequence + 1) & maxSequence
		if sequence == 0 {
			now = g.waitNextMillis(g.lastTimestamp)
		}
	}

	g.sequence = sequence
	g.lastTimestamp = now

	return (now-g.epoch)<<timestampShift |
		g.datacenterID<<datacenterShift |
		g.machineID<<machineShift |
		sequence, nil
}

func (g *Generator) waitNextMillis(last int64) int64 {
	now := g.clock()
	for now <= last {
		now = g.clock()
	}

	return now
}

// Parts is a decoded id.
type Parts struct {
	Timestamp    int64
	DatacenterID int64
	MachineID    int64
	Sequence     int64
}

// Decompose splits an id produced by this generator into its fields.
// Timestamp is absolute milliseconds.
func (g *Generator) Decompose(id int64) Parts {
	return Parts{
		Timestamp:    id>>timestampShift + g.epoch,
		DatacenterID: id >> datacenterShift & MaxDatacenterID,
		MachineID:    id >> machineShift & MaxMachineID,
		Sequence:     id & maxSequence,
	}
}
