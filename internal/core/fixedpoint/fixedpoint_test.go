package fixedpoint

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		den     uint64
		want    uint64
		wantErr error
	}{
		{name: "Simple", a: 6, b: 7, den: 3, want: 14},
		{name: "Floors", a: 10, b: 10, den: 3, want: 33},
		{name: "ZeroNumerator", a: 0, b: 123, den: 7, want: 0},
		{name: "DivideByZero", a: 1, b: 1, den: 0, wantErr: ErrDivideByZero},
		{
			// a*b needs the full 128-bit intermediate but the quotient fits
			name: "WideIntermediate",
			a:    math.MaxUint64, b: 1000, den: 1000,
			want: math.MaxUint64,
		},
		{
			name: "QuotientOverflow",
			a:    math.MaxUint64, b: 2, den: 1,
			wantErr: ErrOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.b, tt.den)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckedAddSubMul(t *testing.T) {
	sum, err := Add(math.MaxUint64-1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), sum)

	_, err = Add(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	diff, err := Sub(10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), diff)

	_, err = Sub(3, 10)
	assert.ErrorIs(t, err, ErrOverflow)

	p, err := Mul(1<<32, (1<<32)-1)
	require.NoError(t, err)
	assert.Equal(t, uint64((1<<32)-1)<<32, p)

	_, err = Mul(1<<32, 1<<32)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSqrt(t *testing.T) {
	assert.Equal(t, uint64(0), Sqrt(0))
	assert.Equal(t, uint64(1), Sqrt(1))
	assert.Equal(t, uint64(1), Sqrt(3))
	assert.Equal(t, uint64(2), Sqrt(4))
	assert.Equal(t, uint64(1000), Sqrt(1000000))
	assert.Equal(t, uint64(1000), Sqrt(1001000))
	assert.Equal(t, uint64((1<<32)-1), Sqrt(math.MaxUint64))
}

func TestSqrtProduct(t *testing.T) {
	// Initial share seed for the canonical balanced deposit.
	assert.Equal(t, uint64(1000), SqrtProduct(1000, 1000))
	// Product overflows 64 bits but the root does not.
	assert.Equal(t, uint64(math.MaxUint64), SqrtProduct(math.MaxUint64, math.MaxUint64))
}

func TestMulDivBig(t *testing.T) {
	got, err := MulDivBig(big.NewInt(7), Scale, big.NewInt(2))
	require.NoError(t, err)
	want := new(big.Int).Mul(big.NewInt(35), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	assert.Zero(t, got.Cmp(want))

	_, err = MulDivBig(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestBigUint64(t *testing.T) {
	v, err := BigUint64(new(big.Int).SetUint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = BigUint64(big.NewInt(-1))
	assert.ErrorIs(t, err, ErrOverflow)

	too := new(big.Int).Add(new(big.Int).SetUint64(math.MaxUint64), big.NewInt(1))
	_, err = BigUint64(too)
	assert.ErrorIs(t, err, ErrOverflow)
}
