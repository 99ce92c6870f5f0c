// Package rng carries the "ran2" long-period uniform generator of Press et
// al. (Numerical Recipes), the generator the legacy Slash/A interpreter
// feeds its ran instruction from. Initialize by calling with *idum negative;
// the stream is then bit-compatible with the original.
package rng

const (
	im1  = 2147483563
	im2  = 2147483399
	am   = 1.0 / float64(im1)
	imm1 = im1 - 1
	ia1  = 40014
	ia2  = 40692
	iq1  = 53668
	iq2  = 52774
	ir1  = 12211
	ir2  = 3791
	ntab = 32
	ndiv = 1 + imm1/ntab
	eps  = 1.2e-7
	rnmx = 1.0 - eps
)

// Generator state. Like the original, the shuffle table is process-wide
// and reseeded whenever a caller passes a negative *idum; callers running
// concurrently must serialize their draws.
var (
	idum2 int64 = 123456789
	iy    int64
	iv    [ntab]int64
)

// Ran2 returns a uniform deviate in (0,1), advancing *idum.
func Ran2(idum *int64) float64 {
	var k, j int64

	if *idum <= 0 {
		if -(*idum) < 1 {
			*idum = 1
		} else {
			*idum = -(*idum)
		}
		idum2 = *idum
		for j = ntab + 7; j >= 0; j-- {
			k = *idum / iq1
			*idum = ia1*(*idum-k*iq1) - k*ir1
			if *idum < 0 {
				*idum += im1
			}
			if j < ntab {
				iv[j] = *idum
			}
		}
		iy = iv[0]
	}

	k = *idum / iq1
	*idum = ia1*(*idum-k*iq1) - k*ir1
	if *idum < 0 {
		*idum += im1
	}

	k = idum2 / iq2
	idum2 = ia2*(idum2-k*iq2) - k*ir2
	if idum2 < 0 {
		idum2 += im2
	}

	j = iy / ndiv
	iy = iv[j] - idum2
	iv[j] = *idum
	if iy < 1 {
		iy += imm1
	}

	if temp := am * float64(iy); temp > rnmx {
		return rnmx
	} else {
		return temp
	}
}
