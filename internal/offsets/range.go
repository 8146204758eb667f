package offsets

import (
	"fmt"

	"github.com/paveg/scmframe/internal/calendar"
	"github.com/paveg/scmframe/internal/errors"
)

// GenerateRange returns every timestamp aligned to offset between start
// rolled back and end rolled forward, inclusive and increasing. The range is
// built in the calendar of start; end is reinterpreted in that calendar.
func GenerateRange(start, end calendar.DateTime, offset Offset) ([]calendar.DateTime, error) {
	if offset == nil {
		return nil, errors.NewSpecificationError("GenerateRange", "offset must not be nil")
	}
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("invalid range start: %w", err)
	}
	end = end.In(start.Calendar)
	if err := end.Validate(); err != nil {
		return nil, fmt.Errorf("invalid range end: %w", err)
	}
	if end.Before(start) {
		return nil, errors.NewRangeError("GenerateRange",
			fmt.Sprintf("end %s is before start %s", end, start))
	}

	first := offset.Rollback(start)
	last := offset.Rollforward(end)

	out := []calendar.DateTime{first}
	cur := first
	for {
		next := offset.Next(cur)
		if !next.After(cur) {
			return nil, errors.NewSpecificationError("GenerateRange",
				fmt.Sprintf("offset %s does not advance time from %s", offset, cur))
		}
		if !cur.Before(last) {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// Range parses freq and generates the range between start and end
func Range(start, end calendar.DateTime, freq string) ([]calendar.DateTime, error) {
	offset, err := ParseOffset(freq)
	if err != nil {
		return nil, err
	}
	return GenerateRange(start, end, offset)
}
