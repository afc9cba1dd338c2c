package pi

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/remyoudompheng/bigfft"
)

const (
	// digitsPerTerm is a lower bound on the decimal digits each Chudnovsky
	// term contributes (log10(640320^3/1728) ≈ 14.18).
	digitsPerTerm = 14

	// initialGuardDigits are computed past the requested precision so that
	// truncation lands on exact digits.
	initialGuardDigits = 12

	// parallelThreshold is the smallest term range handed to the pool.
	parallelThreshold = 512

	// cancelCheckThreshold is the smallest term range that polls ctx.
	cancelCheckThreshold = 64

	// errorDigits bounds the error of scaled: it may be up to 10^errorDigits
	// units away from the true value in the last guard place.
	errorDigits = 2
)

var (
	chudnovskyA      = big.NewInt(13591409)
	chudnovskyB      = big.NewInt(545140134)
	chudnovskyC3Over = new(big.Int).Div(new(big.Int).Exp(big.NewInt(640320), big.NewInt(3), nil), big.NewInt(24))
	chudnovskyScale  = big.NewInt(426880)
	chudnovskyRoot   = big.NewInt(10005)
	bigTen           = big.NewInt(10)
)

// split holds the P, Q and T sums of a binary-split term range.
type split struct {
	p, q, t *big.Int
}

// computer evaluates the Chudnovsky series by binary splitting.
type computer struct {
	pool *ants.Pool
}

// digits returns π truncated to n fractional digits.
//
// The series is evaluated with guard digits. If the guard digits are within
// the error bound of a digit boundary the truncation point is ambiguous and
// the computation is repeated with twice as many guard digits.
func (c computer) digits(ctx context.Context, n int) (string, error) {
	guard := initialGuardDigits
	for {
		scaled, err := c.scaled(ctx, n+guard)
		if err != nil {
			return "", err
		}
		text := scaled.String()
		// text is "31415..." with n+guard fractional digits.
		if len(text) != 1+n+guard {
			return "", errors.New("unexpected digit count from series")
		}
		if !ambiguousTail(text[1+n:]) {
			if n == 0 {
				return text[:1], nil
			}
			return text[:1] + "." + text[1:1+n], nil
		}
		guard *= 2
	}
}

// ambiguousTail reports whether guard digits are close enough to a multiple
// of 10^len(tail) that the error in scaled could move the digits before them.
func ambiguousTail(tail string) bool {
	if len(tail) <= errorDigits {
		return true
	}
	head := tail[:len(tail)-errorDigits]
	return strings.Trim(head, "0") == "" || strings.Trim(head, "9") == ""
}

// scaled returns floor(π·10^precision) up to a few units in the last place.
func (c computer) scaled(ctx context.Context, precision int) (*big.Int, error) {
	terms := int64(precision/digitsPerTerm) + 2
	s, err := c.split(ctx, 0, terms)
	if err != nil {
		return nil, err
	}

	one := new(big.Int).Exp(bigTen, big.NewInt(int64(precision)), nil)
	root := bigfft.Mul(chudnovskyRoot, bigfft.Mul(one, one))
	root.Sqrt(root)

	numerator := bigfft.Mul(bigfft.Mul(s.q, chudnovskyScale), root)
	return numerator.Quo(numerator, s.t), nil
}

// split evaluates terms [a, b).
func (c computer) split(ctx context.Context, a, b int64) (split, error) {
	if b-a == 1 {
		return leaf(a), nil
	}
	if b-a >= cancelCheckThreshold {
		if err := ctx.Err(); err != nil {
			return split{}, err
		}
	}

	m := (a + b) / 2
	var (
		left, right split
		leftErr     error
	)
	if c.pool != nil && b-a >= parallelThreshold {
		done := make(chan struct{})
		submitErr := c.pool.Submit(func() {
			defer close(done)
			left, leftErr = c.split(ctx, a, m)
		})
		if submitErr != nil {
			// Pool saturated: evaluate inline.
			left, leftErr = c.split(ctx, a, m)
		}
		var rightErr error
		right, rightErr = c.split(ctx, m, b)
		if submitErr == nil {
			<-done
		}
		if leftErr != nil {
			return split{}, leftErr
		}
		if rightErr != nil {
			return split{}, rightErr
		}
		return merge(left, right), nil
	}

	left, leftErr = c.split(ctx, a, m)
	if leftErr != nil {
		return split{}, leftErr
	}
	right, err := c.split(ctx, m, b)
	if err != nil {
		return split{}, err
	}
	return merge(left, right), nil
}

func leaf(k int64) split {
	if k == 0 {
		p := big.NewInt(1)
		return split{p: p, q: big.NewInt(1), t: new(big.Int).Set(chudnovskyA)}
	}
	p := big.NewInt((6*k - 5) * (2*k - 1) * (6*k - 1))
	kb := big.NewInt(k)
	q := new(big.Int).Mul(kb, kb)
	q.Mul(q, kb)
	q.Mul(q, chudnovskyC3Over)

	t := new(big.Int).Mul(chudnovskyB, kb)
	t.Add(t, chudnovskyA)
	t.Mul(t, p)
	if k%2 == 1 {
		t.Neg(t)
	}
	return split{p: p, q: q, t: t}
}

func merge(left, right split) split {
	p := bigfft.Mul(left.p, right.p)
	q := bigfft.Mul(left.q, right.q)
	t := bigfft.Mul(left.t, right.q)
	t.Add(t, bigfft.Mul(left.p, right.t))
	return split{p: p, q: q, t: t}
}
