// Package encode renders forecast responses as compact binary payloads.
//
// A payload is the magic "FCST" followed by two length-prefixed mebo blobs:
//
//	"FCST" | uint32 len | numeric blob | uint32 len | text blob
//
// Lengths are little endian. The numeric blob holds one metric per variable plus
// the numeric metadata (meta.latitude, meta.longitude, meta.elevation,
// meta.generation_time_ms). The text blob holds the unit of every variable
// (unit.<variable>) and the remaining metadata.
package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arloliu/mebo"
	"github.com/arloliu/mebo/blob"
	"github.com/arloliu/mebo/format"

	"go.ngs.io/forecast-api/internal/domain"
	"go.ngs.io/forecast-api/internal/usecase"
)

// ContentType is the media type of encoded payloads.
const ContentType = "application/x-forecast-mebo"

var magic = []byte("FCST")

// ErrMalformed is returned by Decode for payloads it cannot parse.
var ErrMalformed = errors.New("malformed forecast payload")

const (
	metaLatitude       = "meta.latitude"
	metaLongitude      = "meta.longitude"
	metaElevation      = "meta.elevation"
	metaGenerationTime = "meta.generation_time_ms"
	metaTimezone       = "meta.timezone"
	metaModel          = "meta.model"
	metaDomain         = "meta.domain"
	metaInterval       = "meta.interval"
	metaVariables      = "meta.variables"
	unitPrefix         = "unit."
)

// Encode serialises a forecast response.
func Encode(resp *usecase.ForecastResponse) ([]byte, error) {
	if len(resp.Times) == 0 {
		return nil, fmt.Errorf("cannot encode a forecast without time steps")
	}
	start := resp.Times[0]

	numeric, err := encodeNumeric(resp, start)
	if err != nil {
		return nil, fmt.Errorf("failed to encode values: %w", err)
	}
	text, err := encodeText(resp, start)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magic) + 8 + len(numeric) + len(text))
	buf.Write(magic)
	writeChunk(&buf, numeric)
	writeChunk(&buf, text)
	return buf.Bytes(), nil
}

func writeChunk(buf *bytes.Buffer, chunk []byte) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(chunk))) //nolint:gosec // Blobs are far below 4 GiB.
	buf.Write(n[:])
	buf.Write(chunk)
}

func encodeNumeric(resp *usecase.ForecastResponse, start time.Time) ([]byte, error) {
	enc, err := mebo.NewNumericEncoder(start,
		blob.WithTimestampEncoding(format.TypeDelta),
		blob.WithValueEncoding(format.TypeGorilla),
		blob.WithValueCompression(format.CompressionZstd),
	)
	if err != nil {
		return nil, err
	}

	ts := make([]int64, len(resp.Times))
	for i, t := range resp.Times {
		ts[i] = t.UnixMicro()
	}

	for _, s := range resp.Series {
		if len(s.Values) != len(ts) {
			return nil, fmt.Errorf("variable %s has %d values for %d time steps", s.Variable, len(s.Values), len(ts))
		}
		values := make([]float64, len(s.Values))
		for i, v := range s.Values {
			values[i] = float64(v)
		}
		if err := enc.StartMetricName(s.Variable, len(ts)); err != nil {
			return nil, err
		}
		if err := enc.AddDataPoints(ts, values, nil); err != nil {
			return nil, err
		}
		if err := enc.EndMetric(); err != nil {
			return nil, err
		}
	}

	meta := []struct {
		name  string
		value float64
	}{
		{metaLatitude, float64(resp.Latitude)},
		{metaLongitude, float64(resp.Longitude)},
		{metaElevation, float64(resp.Elevation)},
		{metaGenerationTime, resp.GenerationTimeMs},
	}
	for _, m := range meta {
		if err := addPoint(enc, m.name, ts[0], m.value); err != nil {
			return nil, err
		}
	}

	return enc.Finish()
}

func addPoint(enc *blob.NumericEncoder, name string, ts int64, value float64) error {
	if err := enc.StartMetricName(name, 1); err != nil {
		return err
	}
	if err := enc.AddDataPoint(ts, value, ""); err != nil {
		return err
	}
	return enc.EndMetric()
}

func encodeText(resp *usecase.ForecastResponse, start time.Time) ([]byte, error) {
	enc, err := mebo.NewTextEncoder(start, blob.WithTextDataCompression(format.CompressionZstd))
	if err != nil {
		return nil, err
	}
	ts := start.UnixMicro()

	names := make([]string, len(resp.Series))
	entries := make([][2]string, 0, len(resp.Series)+5)
	for i, s := range resp.Series {
		names[i] = s.Variable
		entries = append(entries, [2]string{unitPrefix + s.Variable, string(s.Unit)})
	}
	entries = append(entries,
		[2]string{metaTimezone, resp.Timezone},
		[2]string{metaModel, resp.Model},
		[2]string{metaDomain, resp.Domain.String()},
		[2]string{metaInterval, resp.Interval.String()},
		[2]string{metaVariables, strings.Join(names, ",")},
	)

	for _, e := range entries {
		if err := enc.StartMetricName(e[0], 1); err != nil {
			return nil, err
		}
		if err := enc.AddDataPoint(ts, e[1], ""); err != nil {
			return nil, err
		}
		if err := enc.EndMetric(); err != nil {
			return nil, err
		}
	}
	return enc.Finish()
}

// Decode parses a payload produced by Encode. GenerationTimeMs and every other
// field round-trip; NaN samples stay NaN.
func Decode(data []byte) (*usecase.ForecastResponse, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, fmt.Errorf("%w: missing magic", ErrMalformed)
	}
	rest := data[len(magic):]
	numeric, rest, err := readChunk(rest)
	if err != nil {
		return nil, err
	}
	text, rest, err := readChunk(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}

	nd, err := mebo.NewNumericDecoder(numeric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	nb, err := nd.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	td, err := mebo.NewTextDecoder(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	tb, err := td.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	textValue := func(name string) string {
		for v := range tb.AllValuesByName(name) {
			return v
		}
		return ""
	}
	numValue := func(name string) float64 {
		for v := range nb.AllValuesByName(name) {
			return v
		}
		return math.NaN()
	}

	interval, err := time.ParseDuration(textValue(metaInterval))
	if err != nil {
		return nil, fmt.Errorf("%w: interval: %v", ErrMalformed, err)
	}

	resp := &usecase.ForecastResponse{
		Latitude:         float32(numValue(metaLatitude)),
		Longitude:        float32(numValue(metaLongitude)),
		Elevation:        float32(numValue(metaElevation)),
		GenerationTimeMs: numValue(metaGenerationTime),
		Timezone:         textValue(metaTimezone),
		Model:            textValue(metaModel),
		Domain:           domain.Domain(textValue(metaDomain)),
		Interval:         interval,
	}

	var names []string
	if joined := textValue(metaVariables); joined != "" {
		names = strings.Split(joined, ",")
	}
	for i, name := range names {
		if !nb.HasMetricName(name) {
			return nil, fmt.Errorf("%w: variable %s missing", ErrMalformed, name)
		}
		if i == 0 {
			for ts := range nb.AllTimestampsByName(name) {
				resp.Times = append(resp.Times, time.UnixMicro(ts).UTC())
			}
		}
		values := make([]float32, 0, len(resp.Times))
		for v := range nb.AllValuesByName(name) {
			values = append(values, float32(v))
		}
		resp.Series = append(resp.Series, usecase.VariableSeries{
			Variable: name,
			Unit:     domain.SiUnit(textValue(unitPrefix + name)),
			Values:   values,
		})
	}
	return resp, nil
}

func readChunk(data []byte) (chunk, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: truncated length", ErrMalformed)
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, fmt.Errorf("%w: truncated blob", ErrMalformed)
	}
	return data[:n], data[n:], nil
}
