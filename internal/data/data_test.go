package data

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehearsal-ml/rehearsal/internal/common"
	"github.com/rehearsal-ml/rehearsal/internal/device"
)

// tenClassDataset builds perClass samples for each of numClasses
// classes, with recognizable feature values (class index everywhere).
func tenClassDataset(numClasses, perClass, dim int) *Dataset {
	var samples [][]float32
	var labels []int32
	for c := 0; c < numClasses; c++ {
		for i := 0; i < perClass; i++ {
			row := make([]float32, dim)
			for j := range row {
				row[j] = float32(c)
			}
			samples = append(samples, row)
			labels = append(labels, int32(c))
		}
	}
	return &Dataset{Samples: samples, Labels: labels}
}

func TestNewDataset_LengthMismatch(t *testing.T) {
	_, err := NewDataset([][]float32{{1}}, []int32{0, 1})
	require.Error(t, err)

	var dataErr *common.DataConsistencyError
	assert.True(t, errors.As(err, &dataErr))
}

func TestSplitManager_Schedule(t *testing.T) {
	train := tenClassDataset(10, 5, 2)
	test := tenClassDataset(10, 2, 2)

	m, err := NewSplitManager(train, test, 4, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, m.NumTasks())
	assert.Equal(t, 10, m.NumClasses())

	sizes := make([]int, m.NumTasks())
	for i := range sizes {
		sizes[i], err = m.TaskSize(i)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{4, 2, 2, 2}, sizes)

	_, err = m.TaskSize(4)
	require.Error(t, err)
}

func TestSplitManager_UnevenTail(t *testing.T) {
	train := tenClassDataset(7, 3, 2)
	test := tenClassDataset(7, 1, 2)

	m, err := NewSplitManager(train, test, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, m.NumTasks())
	last, err := m.TaskSize(2)
	require.NoError(t, err)
	assert.Equal(t, 1, last)
}

func TestSplitManager_Dataset(t *testing.T) {
	train := tenClassDataset(6, 4, 3)
	test := tenClassDataset(6, 2, 3)

	m, err := NewSplitManager(train, test, 2, 2)
	require.NoError(t, err)

	ds, err := m.Dataset(2, 4, SourceTrain, ModeTrain, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, ds.Len())
	for _, y := range ds.Labels {
		assert.True(t, y == 2 || y == 3)
	}

	// Appendent exemplars ride along.
	memory := tenClassDataset(2, 1, 3)
	ds, err = m.Dataset(2, 4, SourceTrain, ModeTrain, memory)
	require.NoError(t, err)
	assert.Equal(t, 10, ds.Len())

	// Test source covers cumulative ranges.
	ds, err = m.Dataset(0, 4, SourceTest, ModeTest, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, ds.Len())

	_, err = m.Dataset(4, 2, SourceTrain, ModeTrain, nil)
	require.Error(t, err)
}

func TestLoader_TestModePreservesOrder(t *testing.T) {
	ds := tenClassDataset(3, 2, 2)

	l, err := NewLoader(ds, 4, ModeTest, 1, device.Config{Device: device.CPU})
	require.NoError(t, err)

	batches, err := l.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.Equal(t, []int32{0, 0, 1, 1}, batches[0].Y)
	assert.Equal(t, []int32{2, 2}, batches[1].Y)
	assert.Equal(t, 4, batches[0].X.Rows())
	assert.Equal(t, 2, batches[0].X.Cols())
}

func TestLoader_TrainModeShufflesDeterministically(t *testing.T) {
	ds := tenClassDataset(10, 10, 1)

	gather := func(seed int64) []int32 {
		l, err := NewLoader(ds, 16, ModeTrain, seed, device.Config{Device: device.CPU})
		require.NoError(t, err)
		batches, err := l.Batches()
		require.NoError(t, err)
		var ys []int32
		for _, b := range batches {
			ys = append(ys, b.Y...)
		}
		return ys
	}

	a := gather(7)
	b := gather(7)
	assert.Equal(t, a, b, "same seed must reproduce the epoch order")

	c := gather(8)
	assert.NotEqual(t, a, c, "different seeds should shuffle differently")

	// All samples appear exactly once.
	counts := map[int32]int{}
	for _, y := range a {
		counts[y]++
	}
	for c := int32(0); c < 10; c++ {
		assert.Equal(t, 10, counts[c])
	}
}

func TestLoader_Validation(t *testing.T) {
	ds := tenClassDataset(2, 2, 1)

	var cfgErr *common.ConfigurationError
	_, err := NewLoader(ds, 0, ModeTrain, 1, device.Config{Device: device.CPU})
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))
}

func writeIDXImages(t *testing.T, images [][]byte, rows, cols int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(idxImagesMagic)))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(images))))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(rows)))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(cols)))
	for _, img := range images {
		buf.Write(img)
	}
	return &buf
}

func TestReadIDX(t *testing.T) {
	imgBuf := writeIDXImages(t, [][]byte{{0, 255, 128, 64}, {255, 0, 0, 0}}, 2, 2)

	images, err := ReadIDXImages(imgBuf)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.InDelta(t, 1.0, images[0][1], 1e-6)
	assert.InDelta(t, 128.0/255.0, images[0][2], 1e-6)

	var lblBuf bytes.Buffer
	require.NoError(t, binary.Write(&lblBuf, binary.BigEndian, uint32(idxLabelsMagic)))
	require.NoError(t, binary.Write(&lblBuf, binary.BigEndian, uint32(2)))
	lblBuf.Write([]byte{3, 7})

	labels, err := ReadIDXLabels(&lblBuf)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 7}, labels)
}

func TestReadIDX_BadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(12345)))

	_, err := ReadIDXImages(&buf)
	require.Error(t, err)
}

func TestSynthetic(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.NumClasses = 4
	cfg.SamplesPerClass = 10
	cfg.TestPerClass = 3

	train, test := Synthetic(cfg)
	assert.Equal(t, 40, train.Len())
	assert.Equal(t, 12, test.Len())
	assert.Equal(t, cfg.Dim, train.Dim())
	assert.Equal(t, 4, train.NumClasses())

	// Same seed, same data.
	train2, _ := Synthetic(cfg)
	assert.Equal(t, train.Samples[0], train2.Samples[0])
}

func TestTextEncoder(t *testing.T) {
	enc, err := NewTextEncoder("cl100k_base", 32)
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	v := enc.Encode("hello world hello")
	assert.Len(t, v, 32)

	var sum float32
	for _, x := range v {
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-5, "hashed counts should be L1-normalized")

	ds, err := enc.TextDataset([]string{"a", "b"}, []int32{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, err = enc.TextDataset([]string{"a"}, []int32{0, 1})
	require.Error(t, err)
}
