package decay

const noiseAmplitude = 50

// faded scales a captured alpha value by the remaining integrity.
func (f *Frame) faded(px, integrity int) uint8 {
	return uint8(int(f.baseAlpha[px]) * integrity / 100)
}

// erodeImage sprinkles noise over colour channels. Alpha follows integrity on
// every pixel whether or not it was hit.
func erodeImage(f *Frame, integrity int, rng Rand) {
	p := float64(100-integrity) * 2 / 100
	pix := f.Image.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if rng.Float64() < p {
			for c := 0; c < 3; c++ {
				noise := rng.IntN(2*noiseAmplitude+1) - noiseAmplitude
				pix[i+c] = clampByte(int(pix[i+c]) + noise)
			}
		}
		pix[i+3] = f.faded(i/4, integrity)
	}
}

// burnImage chars a scattering of pixels toward half the ember tint.
func burnImage(f *Frame, integrity int, ember RGB, rng Rand) {
	hit := rng.Float64() < burnTickChance
	pix := f.Image.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if hit && rng.Float64() < burnUnitChance {
			pix[i] = uint8(int(pix[i]) * int(ember.R) / 510)
			pix[i+1] = uint8(int(pix[i+1]) * int(ember.G) / 510)
			pix[i+2] = uint8(int(pix[i+2]) * int(ember.B) / 510)
		}
		pix[i+3] = f.faded(i/4, integrity)
	}
}

func corruptImage(f *Frame, integrity int, rng Rand) {
	p := float64(100-integrity) / 200
	pix := f.Image.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if rng.Float64() < p {
			pix[i] = uint8(rng.IntN(256))
			pix[i+1] = uint8(rng.IntN(256))
			pix[i+2] = uint8(rng.IntN(256))
		}
	}
}
