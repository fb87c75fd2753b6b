package resolution

import (
	"reflect"
	"time"

	"github.com/viant/gmetric"
	"github.com/viant/gmetric/provider"

	"github.com/solatis/courier/internal/types"
)

// Event is a counter value recorded when an operation finishes.
type Event string

const (
	Success Event = "Success"
	Error   Event = "Error"
)

// Operation names registered by NewMetrics.
const (
	OpPackagingItem      = "resolution.packaging.item"
	OpExtractingItem     = "resolution.extracting.item"
	OpPackagingDataType  = "resolution.packaging.data_type"
	OpExtractingDataType = "resolution.extracting.data_type"
	OpPackagingTransfer  = "transfer.packaging"
	OpExtractingTransfer = "transfer.extracting"
)

// Metrics holds the gmetric operations of the resolution pipeline.
// A nil *Metrics records nothing.
type Metrics struct {
	*gmetric.Service
	operations map[string]*gmetric.Operation
}

type metricsLocation struct{}

func metricLocation() string {
	return reflect.TypeOf(metricsLocation{}).PkgPath()
}

// NewMetrics registers every pipeline operation on service. A nil service
// gets a fresh one.
func NewMetrics(service *gmetric.Service) *Metrics {
	if service == nil {
		service = gmetric.New()
	}
	m := &Metrics{Service: service, operations: make(map[string]*gmetric.Operation)}
	for _, name := range []string{
		OpPackagingItem, OpExtractingItem,
		OpPackagingDataType, OpExtractingDataType,
		OpPackagingTransfer, OpExtractingTransfer,
	} {
		op := service.LookupOperation(name)
		if op == nil {
			op = service.MultiOperationCounter(metricLocation(), name, name+" performance", time.Millisecond, time.Minute, 2, provider.NewBasic())
		}
		m.operations[name] = op
	}
	return m
}

// Begin starts timing the named operation. The returned func records the
// outcome; it is safe to call on a nil *Metrics.
func (m *Metrics) Begin(name string) func(err error) {
	if m == nil {
		return func(error) {}
	}
	op, ok := m.operations[name]
	if !ok {
		return func(error) {}
	}

	onDone := op.Begin(time.Now())
	return func(err error) {
		if err != nil {
			op.IncrementValue(Error)
		} else {
			op.IncrementValue(Success)
		}
		onDone(time.Now())
	}
}

func (m *Metrics) begin(direction types.Direction, subject string) func(err error) {
	switch {
	case direction == types.Packaging && subject == "item":
		return m.Begin(OpPackagingItem)
	case direction == types.Extracting && subject == "item":
		return m.Begin(OpExtractingItem)
	case direction == types.Packaging:
		return m.Begin(OpPackagingDataType)
	default:
		return m.Begin(OpExtractingDataType)
	}
}
