package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MNIST IDX magic numbers.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// LoadMNIST loads the official MNIST IDX files from dataDir and returns
// both splits with pixels normalized to [0, 1]. Split-MNIST benchmarks
// partition its 10 digit classes into tasks.
//
// Expected files:
//
//	train-images-idx3-ubyte, train-labels-idx1-ubyte
//	t10k-images-idx3-ubyte,  t10k-labels-idx1-ubyte
func LoadMNIST(dataDir string) (train, test *Dataset, err error) {
	train, err = loadMNISTSplit(dataDir, "train-images-idx3-ubyte", "train-labels-idx1-ubyte")
	if err != nil {
		return nil, nil, fmt.Errorf("train split: %w", err)
	}
	test, err = loadMNISTSplit(dataDir, "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte")
	if err != nil {
		return nil, nil, fmt.Errorf("test split: %w", err)
	}
	return train, test, nil
}

func loadMNISTSplit(dataDir, imageFile, labelFile string) (*Dataset, error) {
	imgF, err := os.Open(filepath.Join(dataDir, imageFile))
	if err != nil {
		return nil, err
	}
	defer imgF.Close()

	lblF, err := os.Open(filepath.Join(dataDir, labelFile))
	if err != nil {
		return nil, err
	}
	defer lblF.Close()

	images, err := ReadIDXImages(imgF)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labels, err := ReadIDXLabels(lblF)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	return NewDataset(images, labels)
}

// ReadIDXImages reads an MNIST image stream in IDX format and returns
// one normalized float32 row per image.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func ReadIDXImages(r io.Reader) ([][]float32, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != idxImagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, idxImagesMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(r, binary.BigEndian, &numImages); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &numRows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &numCols); err != nil {
		return nil, err
	}

	imageSize := int(numRows * numCols)
	raw := make([]byte, imageSize)
	images := make([][]float32, numImages)
	for i := range images {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		row := make([]float32, imageSize)
		for j, b := range raw {
			row[j] = float32(b) / 255.0
		}
		images[i] = row
	}
	return images, nil
}

// ReadIDXLabels reads an MNIST label stream in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]int32, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != idxLabelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, idxLabelsMagic)
	}

	var numLabels uint32
	if err := binary.Read(r, binary.BigEndian, &numLabels); err != nil {
		return nil, err
	}

	raw := make([]byte, numLabels)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	labels := make([]int32, numLabels)
	for i, b := range raw {
		labels[i] = int32(b)
	}
	return labels, nil
}
