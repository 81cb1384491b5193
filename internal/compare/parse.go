package compare

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// ParseTripInfo reads the <tripinfo> children of the document root. Every
// numeric attribute except rerouteNo is required.
func ParseTripInfo(r io.Reader, label string) (TripSet, error) {
	set := TripSet{Label: label}
	err := eachRootChild(r, "tripinfo", func(se xml.StartElement) error {
		a := attrs(se)
		var rec TripRecord
		var err error
		if rec.Depart, err = a.float("depart"); err != nil {
			return err
		}
		if rec.Duration, err = a.float("duration"); err != nil {
			return err
		}
		if rec.TimeLoss, err = a.float("timeLoss"); err != nil {
			return err
		}
		if rec.WaitingTime, err = a.float("waitingTime"); err != nil {
			return err
		}
		if rec.RouteLength, err = a.float("routeLength"); err != nil {
			return err
		}
		reroutes := 0
		if v, ok := a.lookup("rerouteNo"); ok {
			if reroutes, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("tripinfo rerouteNo %q: %w", v, err)
			}
		}
		rec.Rerouted = reroutes > 0
		set.Records = append(set.Records, rec)
		return nil
	})
	return set, err
}

// ParseSummary reads the <step> children of the document root.
func ParseSummary(r io.Reader, label string) (SummarySeries, error) {
	series := SummarySeries{Label: label}
	err := eachRootChild(r, "step", func(se xml.StartElement) error {
		a := attrs(se)
		var s SummarySample
		var err error
		if s.Time, err = a.float("time"); err != nil {
			return err
		}
		v, ok := a.lookup("running")
		if !ok {
			return fmt.Errorf("step: missing attribute running")
		}
		if s.Running, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("step running %q: %w", v, err)
		}
		if s.MeanSpeed, err = a.float("meanSpeed"); err != nil {
			return err
		}
		series.Samples = append(series.Samples, s)
		return nil
	})
	return series, err
}

// eachRootChild calls fn for every element named name that is a direct
// child of the document root.
func eachRootChild(r io.Reader, name string, fn func(xml.StartElement) error) error {
	dec := xml.NewDecoder(r)
	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			sawRoot = true
			if depth == 2 && t.Name.Local == name {
				if err := fn(t); err != nil {
					return err
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	if !sawRoot {
		return fmt.Errorf("no root element")
	}
	if depth != 0 {
		return io.ErrUnexpectedEOF
	}
	return nil
}

type attrMap struct {
	elem string
	vals map[string]string
}

func attrs(se xml.StartElement) attrMap {
	m := attrMap{elem: se.Name.Local, vals: make(map[string]string, len(se.Attr))}
	for _, a := range se.Attr {
		m.vals[a.Name.Local] = a.Value
	}
	return m
}

func (m attrMap) lookup(key string) (string, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m attrMap) float(key string) (float64, error) {
	v, ok := m.vals[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing attribute %s", m.elem, key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %s %q: %w", m.elem, key, v, err)
	}
	return f, nil
}
