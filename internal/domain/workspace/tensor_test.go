package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTensorTransposesCHW(t *testing.T) {
	// 2 channels, 2 rows, 3 columns in CHW order.
	data := []float32{
		// channel 0
		1, 2, 3,
		4, 5, 6,
		// channel 1
		10, 20, 30,
		40, 50, 60,
	}
	tensor := NewTensor(data, []int{2, 2, 3})

	require.Equal(t, 2, tensor.Height)
	require.Equal(t, 3, tensor.Width)
	require.Equal(t, 2, tensor.Channels)

	assert.Equal(t, float32(1), tensor.At(0, 0, 0))
	assert.Equal(t, float32(10), tensor.At(0, 0, 1))
	assert.Equal(t, float32(6), tensor.At(1, 2, 0))
	assert.Equal(t, float32(60), tensor.At(1, 2, 1))
}

func TestNewTensorKeepsHWC(t *testing.T) {
	data := make([]float32, 4*5*3)
	for i := range data {
		data[i] = float32(i)
	}
	tensor := NewTensor(data, []int{4, 5, 3})

	require.Equal(t, 4, tensor.Height)
	require.Equal(t, 5, tensor.Width)
	require.Equal(t, 3, tensor.Channels)
	assert.Equal(t, data, tensor.Data)
}

func TestNewTensorSingleChannel(t *testing.T) {
	tensor := NewTensor([]float32{1, 2, 3, 4}, []int{2, 2})
	require.Equal(t, 1, tensor.Channels)
	assert.Equal(t, float32(3), tensor.At(1, 0, 0))
}

func TestSumChannels(t *testing.T) {
	tensor := Tensor{Height: 1, Width: 2, Channels: 3, Data: []float32{1, 2, 3, -1, -2, -3}}
	flat := tensor.SumChannels()

	require.Equal(t, 1, flat.Channels)
	assert.Equal(t, []float32{6, -6}, flat.Data)
}

func TestAbsMax(t *testing.T) {
	tensor := Tensor{Height: 1, Width: 4, Channels: 1, Data: []float32{0.5, -3, 2, 1}}
	assert.Equal(t, float32(3), tensor.AbsMax())
}

func TestDenormalize(t *testing.T) {
	tests := []struct {
		name string
		data []float32
		want []float32
	}{
		{
			name: "signed unit range",
			data: []float32{-1, 0, 1},
			want: []float32{0, 127.5, 255},
		},
		{
			name: "unit range",
			data: []float32{0, 0.5, 1},
			want: []float32{0, 127.5, 255},
		},
		{
			name: "byte range stays",
			data: []float32{0, 128, 255},
			want: []float32{0, 128, 255},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor := Tensor{Height: 1, Width: len(tt.data), Channels: 1, Data: tt.data}
			got := tensor.Denormalize()
			require.Len(t, got.Data, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got.Data[i], 1e-4)
			}
		})
	}
}
