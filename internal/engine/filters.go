package engine

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Defaults follow the reference values of the equivalent Core Image filters

// SepiaTone maps the colors of an image to various shades of brown
func SepiaTone() Filter {
	return newFilter("CISepiaTone", inputs{KeyIntensity: 1.0}, func(src image.Image, in inputs) image.Image {
		return mix(src, effect.Sepia(src), in.float(KeyIntensity))
	})
}

// Crystallize creates polygon-shaped color blocks by aggregating source pixel values
func Crystallize() Filter {
	return newFilter("CICrystallize", inputs{KeyRadius: 20.0}, func(src image.Image, in inputs) image.Image {
		return crystallize(src, in.float(KeyRadius))
	})
}

// Edges finds all edges in an image and displays them in color
func Edges() Filter {
	return newFilter("CIEdges", inputs{KeyIntensity: 1.0}, func(src image.Image, in inputs) image.Image {
		intensity := in.float(KeyIntensity)
		return adjust.Apply(effect.EdgeDetection(src, 1), func(c color.RGBA) color.RGBA {
			return color.RGBA{
				R: clampByte(float64(c.R) * intensity),
				G: clampByte(float64(c.G) * intensity),
				B: clampByte(float64(c.B) * intensity),
				A: c.A,
			}
		})
	})
}

// GaussianBlur spreads source pixels by an amount specified by a gaussian distribution
func GaussianBlur() Filter {
	return newFilter("CIGaussianBlur", inputs{KeyRadius: 10.0}, func(src image.Image, in inputs) image.Image {
		radius := in.float(KeyRadius)
		if radius <= 0 {
			return clone.AsRGBA(src)
		}

		return blur.Gaussian(src, radius)
	})
}

// Pixellate makes an image blocky by mapping it to colored squares
func Pixellate() Filter {
	return newFilter("CIPixellate", inputs{KeyScale: 8.0}, func(src image.Image, in inputs) image.Image {
		return pixellate(src, in.float(KeyScale))
	})
}

// UnsharpMask increases the contrast of the edges between pixels of different colors
func UnsharpMask() Filter {
	return newFilter("CIUnsharpMask", inputs{KeyRadius: 2.5, KeyIntensity: 0.5}, func(src image.Image, in inputs) image.Image {
		radius := in.float(KeyRadius)
		if radius <= 0 {
			return clone.AsRGBA(src)
		}

		return effect.UnsharpMask(src, radius, in.float(KeyIntensity))
	})
}

// Vignette reduces the brightness of an image at the periphery
func Vignette() Filter {
	return newFilter("CIVignette", inputs{KeyIntensity: 0.0, KeyRadius: 1.0}, func(src image.Image, in inputs) image.Image {
		return vignette(src, in.float(KeyIntensity), in.float(KeyRadius))
	})
}

// BokehBlur smooths an image using a disc-shaped convolution kernel
func BokehBlur() Filter {
	defaults := inputs{
		KeyRadius:     20.0,
		KeyRingAmount: 0.0,
		KeyRingSize:   0.1,
		KeySoftness:   1.0,
	}

	return newFilter("CIBokehBlur", defaults, func(src image.Image, in inputs) image.Image {
		radius := in.float(KeyRadius)
		if radius <= 0 {
			return clone.AsRGBA(src)
		}

		var out image.Image = blur.Box(src, radius)
		if softness := unit(in.float(KeySoftness)); softness > 0 {
			out = mix(out, blur.Gaussian(src, radius/2), softness)
		}

		if ring := in.float(KeyRingAmount) * in.float(KeyRingSize); ring != 0 {
			out = adjust.Brightness(out, ring)
		}

		return out
	})
}

// ColorMonochrome remaps colors so they fall within shades of a single color
func ColorMonochrome() Filter {
	defaults := inputs{
		KeyIntensity: 1.0,
		KeyColor:     color.Color(color.NRGBA{R: 153, G: 115, B: 76, A: 255}),
	}

	return newFilter("CIColorMonochrome", defaults, func(src image.Image, in inputs) image.Image {
		c := in.color(KeyColor)
		if c == nil {
			c = color.White
		}

		tint := color.NRGBAModel.Convert(c).(color.NRGBA)
		tinted := adjust.Apply(effect.Grayscale(src), func(c color.RGBA) color.RGBA {
			return color.RGBA{
				R: clampByte(float64(c.R) * float64(tint.R) / 255),
				G: clampByte(float64(c.G) * float64(tint.G) / 255),
				B: clampByte(float64(c.B) * float64(tint.B) / 255),
				A: c.A,
			}
		})

		return mix(src, tinted, in.float(KeyIntensity))
	})
}

// Bloom softens edges and applies a pleasant glow to an image
func Bloom() Filter {
	return newFilter("CIBloom", inputs{KeyRadius: 10.0, KeyIntensity: 0.5}, func(src image.Image, in inputs) image.Image {
		radius := in.float(KeyRadius)
		if radius <= 0 {
			return clone.AsRGBA(src)
		}

		glow := blend.Screen(src, blur.Gaussian(src, radius))
		return mix(src, glow, in.float(KeyIntensity))
	})
}

// PhotoEffectChrome applies an exaggerated color and contrast look, it has no parameters besides the image
func PhotoEffectChrome() Filter {
	return newFilter("CIPhotoEffectChrome", nil, func(src image.Image, in inputs) image.Image {
		return imaging.AdjustContrast(imaging.AdjustSaturation(src, 25), 12)
	})
}

// mix blends top over base with the given opacity, clamped to [0, 1]
func mix(base, top image.Image, opacity float64) image.Image {
	return imaging.Overlay(base, top, base.Bounds().Min, unit(opacity))
}
