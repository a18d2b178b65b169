package regression

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ErrModelReleased is returned by Predict after Close.
var ErrModelReleased = errors.New("regression: model has been released")

// Adam hyperparameters, fixed at the usual defaults.
const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// Config controls training of a Regressor. Zero values fall back to the
// pipeline defaults.
type Config struct {
	Hidden          int
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
	Seed            int64
}

func (c *Config) applyDefaults() {
	if c.Hidden == 0 {
		c.Hidden = 32
	}
	if c.Epochs == 0 {
		c.Epochs = 10
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.LearningRate == 0 {
		c.LearningRate = 1e-3
	}
	if c.ValidationSplit == 0 {
		c.ValidationSplit = 0.1
	}
}

// Regressor is a small feed-forward network with one ReLU hidden layer and a
// linear scalar output. Weights are immutable after Train returns, so a single
// model may serve concurrent Predict calls. Close releases the weights; the
// model is unusable afterwards.
type Regressor struct {
	in     int
	hidden int

	w1 *mat.Dense    // hidden x in
	b1 *mat.VecDense // hidden
	w2 *mat.VecDense // hidden
	b2 float64

	trainLoss float64
	valLoss   float64

	closeOnce sync.Once
	released  atomic.Bool
}

// Train fits a new Regressor on samples with minibatch Adam against MSE loss.
// Samples are shuffled and the trailing validation split is held out of the
// gradient updates.
func Train(samples []Sample, cfg Config) (*Regressor, error) {
	cfg.applyDefaults()

	if len(samples) == 0 {
		return nil, errors.New("regression: no training samples")
	}
	in := len(samples[0].Features)
	if in == 0 {
		return nil, errors.New("regression: empty feature vector")
	}
	for i, s := range samples {
		if len(s.Features) != in {
			return nil, fmt.Errorf("regression: sample %d has %d features, want %d", i, len(s.Features), in)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nVal := int(float64(len(shuffled)) * cfg.ValidationSplit)
	if nVal >= len(shuffled) {
		nVal = len(shuffled) - 1
	}
	train := shuffled[:len(shuffled)-nVal]
	val := shuffled[len(shuffled)-nVal:]

	r := newRegressor(in, cfg.Hidden, rng)
	opt := newAdam(r, cfg.LearningRate)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(train), func(i, j int) {
			train[i], train[j] = train[j], train[i]
		})

		var epochLoss float64
		for off := 0; off < len(train); off += cfg.BatchSize {
			end := off + cfg.BatchSize
			if end > len(train) {
				end = len(train)
			}
			epochLoss += r.trainBatch(train[off:end], opt)
		}

		r.trainLoss = epochLoss / float64(len(train))
		if math.IsNaN(r.trainLoss) || math.IsInf(r.trainLoss, 0) {
			return nil, errors.New("regression: training diverged")
		}
	}

	r.valLoss = r.meanLoss(val)
	return r, nil
}

func newRegressor(in, hidden int, rng *rand.Rand) *Regressor {
	r := &Regressor{
		in:     in,
		hidden: hidden,
		w1:     mat.NewDense(hidden, in, nil),
		b1:     mat.NewVecDense(hidden, nil),
		w2:     mat.NewVecDense(hidden, nil),
	}

	// He initialization for the ReLU layer, Xavier-ish for the output.
	s1 := math.Sqrt(2 / float64(in))
	w1 := r.w1.RawMatrix().Data
	for i := range w1 {
		w1[i] = rng.NormFloat64() * s1
	}
	s2 := math.Sqrt(1 / float64(hidden))
	w2 := r.w2.RawVector().Data
	for i := range w2 {
		w2[i] = rng.NormFloat64() * s2
	}
	return r
}

// forward computes the hidden pre-activation z, activation h and output y for
// one feature vector. z and h are reused across calls by the trainer.
func (r *Regressor) forward(x *mat.VecDense, z, h *mat.VecDense) float64 {
	z.MulVec(r.w1, x)
	z.AddVec(z, r.b1)

	zd := z.RawVector().Data
	hd := h.RawVector().Data
	for i, v := range zd {
		if v > 0 {
			hd[i] = v
		} else {
			hd[i] = 0
		}
	}
	return mat.Dot(r.w2, h) + r.b2
}

// trainBatch accumulates gradients over one minibatch and applies a single
// Adam step. Returns the summed squared error of the batch.
func (r *Regressor) trainBatch(batch []Sample, opt *adam) float64 {
	gw1 := mat.NewDense(r.hidden, r.in, nil)
	gb1 := mat.NewVecDense(r.hidden, nil)
	gw2 := mat.NewVecDense(r.hidden, nil)
	var gb2 float64

	z := mat.NewVecDense(r.hidden, nil)
	h := mat.NewVecDense(r.hidden, nil)
	dz := mat.NewVecDense(r.hidden, nil)

	var sumSq float64
	scale := 1 / float64(len(batch))
	for _, s := range batch {
		x := mat.NewVecDense(r.in, s.Features)
		y := r.forward(x, z, h)

		diff := y - s.Label
		sumSq += diff * diff
		dy := 2 * diff * scale

		gw2.AddScaledVec(gw2, dy, h)
		gb2 += dy

		// dz = dy * w2, gated by the ReLU.
		zd := z.RawVector().Data
		w2d := r.w2.RawVector().Data
		dzd := dz.RawVector().Data
		for i := range dzd {
			if zd[i] > 0 {
				dzd[i] = dy * w2d[i]
			} else {
				dzd[i] = 0
			}
		}

		gw1.RankOne(gw1, 1, dz, x)
		gb1.AddVec(gb1, dz)
	}

	opt.step(r, gw1, gb1, gw2, gb2)
	return sumSq
}

// meanLoss computes mean squared error over samples without touching weights.
func (r *Regressor) meanLoss(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	z := mat.NewVecDense(r.hidden, nil)
	h := mat.NewVecDense(r.hidden, nil)

	var sum float64
	for _, s := range samples {
		x := mat.NewVecDense(r.in, s.Features)
		diff := r.forward(x, z, h) - s.Label
		sum += diff * diff
	}
	return sum / float64(len(samples))
}

// Predict runs a forward pass over features. It is safe for concurrent use;
// the weights are read-only after training.
func (r *Regressor) Predict(features []float64) (float64, error) {
	if r.released.Load() {
		return 0, ErrModelReleased
	}
	if len(features) != r.in {
		return 0, fmt.Errorf("regression: got %d features, want %d", len(features), r.in)
	}

	x := mat.NewVecDense(r.in, features)
	z := mat.NewVecDense(r.hidden, nil)
	h := mat.NewVecDense(r.hidden, nil)
	return r.forward(x, z, h), nil
}

// InputSize reports the expected feature vector length.
func (r *Regressor) InputSize() int {
	return r.in
}

// TrainLoss reports the mean training loss of the final epoch.
func (r *Regressor) TrainLoss() float64 {
	return r.trainLoss
}

// ValidationLoss reports the held-out loss after the final epoch.
func (r *Regressor) ValidationLoss() float64 {
	return r.valLoss
}

// Close releases the model. Further Predict calls fail with ErrModelReleased.
// Close is idempotent.
func (r *Regressor) Close() {
	r.closeOnce.Do(func() {
		r.released.Store(true)
		r.w1 = nil
		r.b1 = nil
		r.w2 = nil
	})
}

// adam holds first and second moment estimates per parameter group.
type adam struct {
	lr float64
	t  int

	mw1, vw1 []float64
	mb1, vb1 []float64
	mw2, vw2 []float64
	mb2, vb2 float64
}

func newAdam(r *Regressor, lr float64) *adam {
	n1 := r.hidden * r.in
	return &adam{
		lr:  lr,
		mw1: make([]float64, n1), vw1: make([]float64, n1),
		mb1: make([]float64, r.hidden), vb1: make([]float64, r.hidden),
		mw2: make([]float64, r.hidden), vw2: make([]float64, r.hidden),
	}
}

func (a *adam) step(r *Regressor, gw1 *mat.Dense, gb1, gw2 *mat.VecDense, gb2 float64) {
	a.t++
	c1 := 1 - math.Pow(adamBeta1, float64(a.t))
	c2 := 1 - math.Pow(adamBeta2, float64(a.t))

	a.update(r.w1.RawMatrix().Data, gw1.RawMatrix().Data, a.mw1, a.vw1, c1, c2)
	a.update(r.b1.RawVector().Data, gb1.RawVector().Data, a.mb1, a.vb1, c1, c2)
	a.update(r.w2.RawVector().Data, gw2.RawVector().Data, a.mw2, a.vw2, c1, c2)

	a.mb2 = adamBeta1*a.mb2 + (1-adamBeta1)*gb2
	a.vb2 = adamBeta2*a.vb2 + (1-adamBeta2)*gb2*gb2
	r.b2 -= a.lr * (a.mb2 / c1) / (math.Sqrt(a.vb2/c2) + adamEps)
}

func (a *adam) update(w, g, m, v []float64, c1, c2 float64) {
	for i := range w {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g[i]
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g[i]*g[i]
		w[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEps)
	}
}
