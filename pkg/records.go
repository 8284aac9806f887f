package brain

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SpikeRaster is a neuron's trial-aligned spike raster, one entry per ephys
// alignment sample.
type SpikeRaster struct {
	Key                     RasterKey
	GoodTrial               bool
	BehaviorQualityParamsID int
	Raster                  []bool
}

// Rate is a neuron's trial-aligned firing rate in spikes/s, one entry per
// behavior sample.
type Rate struct {
	Key                     RateKey
	GoodTrial               bool
	BehaviorQualityParamsID int
	Rate                    []float64
}

// Psth is the trial-averaged firing rate of a neuron in a behavior block.
type Psth struct {
	Key  PsthKey
	Psth []float64
}

// Payload layout, little endian:
//   raster: good_trial(1) quality_id(8) n(8) raster(n)
//   rate:   good_trial(1) quality_id(8) n(8) rate(8n)
//   psth:   n(8) psth(8n)

type qualityHeader struct {
	GoodTrial bool
	QualityID int64
	Length    int64
}

func encodeRaster(r SpikeRaster) ([]byte, error) {
	var buf bytes.Buffer
	header := qualityHeader{GoodTrial: r.GoodTrial, QualityID: int64(r.BehaviorQualityParamsID), Length: int64(len(r.Raster))}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, r.Raster); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRaster(key RasterKey, payload []byte) (SpikeRaster, error) {
	reader := bytes.NewReader(payload)
	var header qualityHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return SpikeRaster{}, fmt.Errorf("error decoding raster header %s: %w", key, err)
	}
	raster := make([]bool, header.Length)
	if err := binary.Read(reader, binary.LittleEndian, raster); err != nil {
		return SpikeRaster{}, fmt.Errorf("error decoding raster %s: %w", key, err)
	}
	return SpikeRaster{
		Key:                     key,
		GoodTrial:               header.GoodTrial,
		BehaviorQualityParamsID: int(header.QualityID),
		Raster:                  raster,
	}, nil
}

func encodeRate(r Rate) ([]byte, error) {
	var buf bytes.Buffer
	header := qualityHeader{GoodTrial: r.GoodTrial, QualityID: int64(r.BehaviorQualityParamsID), Length: int64(len(r.Rate))}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, r.Rate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRate(key RateKey, payload []byte) (Rate, error) {
	reader := bytes.NewReader(payload)
	var header qualityHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return Rate{}, fmt.Errorf("error decoding rate header %s: %w", key, err)
	}
	rate := make([]float64, header.Length)
	if err := binary.Read(reader, binary.LittleEndian, rate); err != nil {
		return Rate{}, fmt.Errorf("error decoding rate %s: %w", key, err)
	}
	return Rate{
		Key:                     key,
		GoodTrial:               header.GoodTrial,
		BehaviorQualityParamsID: int(header.QualityID),
		Rate:                    rate,
	}, nil
}

func encodePsth(p Psth) ([]byte, error) {
	return encodeFloat64s(p.Psth)
}

func decodePsth(key PsthKey, payload []byte) (Psth, error) {
	values, err := decodeFloat64s(payload)
	if err != nil {
		return Psth{}, fmt.Errorf("error decoding psth %s: %w", key, err)
	}
	return Psth{Key: key, Psth: values}, nil
}

func encodeFloat64s(values []float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, int64(len(values))); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeFloat64s(payload []byte) ([]float64, error) {
	reader := bytes.NewReader(payload)
	var n int64
	if err := binary.Read(reader, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	values := make([]float64, n)
	if err := binary.Read(reader, binary.LittleEndian, values); err != nil {
		return nil, err
	}
	return values, nil
}

// EncodeInt64s packs a sample index sequence into the blob format used by
// the metadata tables: raw little endian int64 values.
func EncodeInt64s(values []int64) []byte {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], uint64(v))
	}
	return data
}

func DecodeInt64s(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("int64 blob length %d is not a multiple of 8", len(data))
	}
	values := make([]int64, len(data)/8)
	for i := range values {
		values[i] = int64(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return values, nil
}
