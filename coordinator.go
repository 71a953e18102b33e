package word2vec

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxWordReadAttempts bounds how often a worker re-reads a vocabulary entry that came back nil
const maxWordReadAttempts = 3

// TrainingState is the lifecycle stage of a TrainingCoordinator
type TrainingState int32

const (
	StateUninitialized TrainingState = iota
	StateVocabularyReady
	StateTreeReady
	StateTraining
	StateDrained
	StateComplete
)

func (s TrainingState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateVocabularyReady:
		return "vocabulary_ready"
	case StateTreeReady:
		return "tree_ready"
	case StateTraining:
		return "training"
	case StateDrained:
		return "drained"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// TrainingCoordinator prepares the vocabulary and drives skip-gram training over a corpus
// with a bounded pool of workers. Each document of each epoch is one unit of work.
type TrainingCoordinator struct {
	config   *Config
	corpus   Corpus
	storage  VocabularyStorage
	logger   Logger
	progress ProgressCallback

	mtx       sync.Mutex // guards preparation and run start
	store     *VocabularyStore
	tree      *HuffmanTree
	trainer   *SkipGramTrainer
	scheduler *LearningRateScheduler
	loaded    bool

	state          atomic.Int32
	running        atomic.Bool
	interrupted    atomic.Bool
	wordsProcessed atomic.Int64
	unitsCompleted atomic.Int64
	pending        atomic.Int64

	startTime    time.Time
	trainingTime time.Duration
}

// NewTrainingCoordinator creates a coordinator. storage may be nil.
func NewTrainingCoordinator(
	config *Config,
	corpus Corpus,
	storage VocabularyStorage,
	logger Logger,
) (*TrainingCoordinator, error) {
	if err := Validate(config); err != nil {
		return nil, err
	}
	if corpus == nil {
		return nil, fmt.Errorf("%w: corpus is required", ErrInvalidConfiguration)
	}
	logger = orDiscard(logger)

	cfg := *config
	return &TrainingCoordinator{
		config:  &cfg,
		corpus:  corpus,
		storage: storage,
		logger:  logger,
	}, nil
}

// SetProgressCallback sets a callback for progress reporting during training
func (c *TrainingCoordinator) SetProgressCallback(callback ProgressCallback) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.progress = callback
}

// State returns the current lifecycle stage
func (c *TrainingCoordinator) State() TrainingState {
	return TrainingState(c.state.Load())
}

// Interrupted reports whether the last run was cancelled before it drained
func (c *TrainingCoordinator) Interrupted() bool {
	return c.interrupted.Load()
}

// Store returns the vocabulary store, or nil before BuildVocabulary
func (c *TrainingCoordinator) Store() *VocabularyStore {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.store
}

// Tree returns the Huffman tree summary, or nil before BuildTree
func (c *TrainingCoordinator) Tree() *HuffmanTree {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.tree
}

// Loaded reports whether the store came from storage instead of being built from the corpus
func (c *TrainingCoordinator) Loaded() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.loaded
}

// WordsProcessed returns the number of words consumed by all training runs
func (c *TrainingCoordinator) WordsProcessed() int64 {
	return c.wordsProcessed.Load()
}

// LearningRate returns the current learning rate
func (c *TrainingCoordinator) LearningRate() float64 {
	c.mtx.Lock()
	scheduler := c.scheduler
	c.mtx.Unlock()

	if scheduler == nil {
		return c.config.LearningRate
	}
	return scheduler.Rate()
}

// TrainingTime returns the wall time of the last completed run
func (c *TrainingCoordinator) TrainingTime() time.Duration {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.trainingTime
}

// BuildVocabulary loads the store from storage when one exists, otherwise builds it from
// the corpus word counts. A loaded store is trusted as is, including its Huffman paths and
// weights, and moves straight to StateTreeReady.
func (c *TrainingCoordinator) BuildVocabulary() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.buildVocabularyLocked()
}

func (c *TrainingCoordinator) buildVocabularyLocked() error {
	if c.State() != StateUninitialized {
		return nil
	}

	if c.storage != nil && c.storage.Exists() {
		store, err := c.storage.Load()
		if err != nil {
			return fmt.Errorf("load vocabulary: %w", err)
		}
		if store.LayerSize() != c.config.LayerSize {
			return fmt.Errorf("%w: stored layer size %d, configured %d",
				ErrDimensionMismatch, store.LayerSize(), c.config.LayerSize)
		}

		c.store = store
		c.loaded = true
		c.tree = treeOf(store)
		c.trainer = NewSkipGramTrainer(store)
		c.state.Store(int32(StateTreeReady))

		c.logger.Infof("Loaded vocabulary from storage, words: %d, layer size: %d", store.Size(), store.LayerSize())
		return nil
	}

	var frequencies map[string]int64
	if source, ok := c.corpus.(FrequencySource); ok {
		frequencies = source.WordFrequencies()
	} else {
		frequencies = CountFrequencies(c.corpus)
	}

	store, err := NewVocabularyStore(frequencies, c.config.LayerSize, c.config.MinWordFrequency, c.config.UnknownPolicy)
	if err != nil {
		return err
	}

	c.store = store
	c.state.Store(int32(StateVocabularyReady))

	c.logger.Infof("Built vocabulary, distinct tokens: %d, words: %d, unknown frequency: %d",
		len(frequencies), store.Size(), store.Unknown().Frequency)
	return nil
}

// BuildTree encodes the Huffman tree and initializes the weights. It is a no-op for a
// store loaded from storage.
func (c *TrainingCoordinator) BuildTree() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.buildTreeLocked()
}

func (c *TrainingCoordinator) buildTreeLocked() error {
	if err := c.buildVocabularyLocked(); err != nil {
		return err
	}
	if c.State() != StateVocabularyReady {
		return nil
	}

	tree, err := EncodeHuffman(c.store.Words())
	if err != nil {
		return err
	}
	c.store.ResetWeights(c.config.Seed)

	c.tree = tree
	c.trainer = NewSkipGramTrainer(c.store)
	c.state.Store(int32(StateTreeReady))

	c.logger.Infof("Encoded huffman tree, leaves: %d, internal nodes: %d, max depth: %d",
		tree.Leaves, tree.InternalNodes, tree.MaxDepth)
	return nil
}

// treeOf summarizes the paths of an already annotated store
func treeOf(store *VocabularyStore) *HuffmanTree {
	tree := &HuffmanTree{Leaves: store.Size(), InternalNodes: max(store.Size()-1, 0)}
	for _, w := range store.Words() {
		tree.MaxDepth = max(tree.MaxDepth, len(w.Code))
	}
	return tree
}

// Train runs Config.NumIterations epochs over the corpus, preparing the vocabulary and
// tree first if needed.
//
// Cancelling ctx while units are dispatched or drained marks the coordinator interrupted
// and returns ErrInterrupted once the units already running have finished. Nothing is
// rolled back. A unit that hits a vocabulary invariant violation aborts the run with that error.
func (c *TrainingCoordinator) Train(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: training already in progress", ErrInvalidConfiguration)
	}
	defer c.running.Store(false)

	c.mtx.Lock()
	if err := c.buildTreeLocked(); err != nil {
		c.mtx.Unlock()
		return err
	}

	numDocs := c.corpus.NumDocuments()
	totalUnits := int64(numDocs) * int64(c.config.NumIterations)
	c.scheduler = NewLearningRateScheduler(c.config.LearningRate, c.config.MinLearningRate, totalUnits)
	c.unitsCompleted.Store(0)
	c.interrupted.Store(false)
	c.startTime = time.Now()
	c.state.Store(int32(StateTraining))
	c.mtx.Unlock()

	workers := c.config.workerCount()
	c.logger.Infof("Starting training, documents: %d, epochs: %d, workers: %d, learning rate: %f",
		numDocs, c.config.NumIterations, workers, c.config.LearningRate)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

dispatch:
	for epoch := range c.config.NumIterations {
		for doc := range numDocs {
			if gctx.Err() != nil {
				break dispatch
			}

			unit := int64(epoch)*int64(numDocs) + int64(doc)
			c.pending.Add(1)
			g.Go(func() error {
				defer c.pending.Add(-1)
				if gctx.Err() != nil {
					return nil
				}
				return c.trainUnit(unit, doc, numDocs)
			})
		}
	}

	if err := c.drain(ctx, g); err != nil {
		return err
	}

	c.mtx.Lock()
	c.trainingTime = time.Since(c.startTime)
	c.mtx.Unlock()
	c.state.Store(int32(StateDrained))

	c.logger.Infof("Training drained, words processed: %d, learning rate: %f, elapsed: %v",
		c.wordsProcessed.Load(), c.scheduler.Rate(), c.TrainingTime())

	if err := c.complete(); err != nil {
		return err
	}
	return nil
}

// drain waits for every dispatched unit, logging the outstanding work on each poll tick
func (c *TrainingCoordinator) drain(ctx context.Context, g *errgroup.Group) error {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	ticker := time.NewTicker(c.config.DrainPollInterval)
	defer ticker.Stop()

	// cancelled is nilled after the first signal so the loop keeps waiting on done
	cancelled := ctx.Done()
	for {
		select {
		case err := <-done:
			if err != nil {
				c.logger.Errorf("Training aborted, error: %v", err)
				return err
			}
			if ctx.Err() != nil {
				if !c.interrupted.Load() {
					c.interrupt(ctx)
				}
				return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
			}
			return nil

		case <-ticker.C:
			c.logger.Infof("Waiting for training units, pending: %d", c.pending.Load())

		case <-cancelled:
			cancelled = nil
			c.interrupt(ctx)
		}
	}
}

// interrupt marks the run interrupted. Queued units skip their work once the group
// context is cancelled; running units finish before Train returns.
func (c *TrainingCoordinator) interrupt(ctx context.Context) {
	c.interrupted.Store(true)
	c.logger.Warnf("Training interrupted, pending: %d, words processed: %d, cause: %v",
		c.pending.Load(), c.wordsProcessed.Load(), context.Cause(ctx))
}

// complete persists a freshly built store when configured to
func (c *TrainingCoordinator) complete() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.config.SaveVocab && c.storage != nil && !c.loaded {
		if err := c.storage.Save(c.store); err != nil {
			return fmt.Errorf("save vocabulary: %w", err)
		}
		c.logger.Infof("Saved vocabulary, words: %d", c.store.Size())
	}

	c.state.Store(int32(StateComplete))
	return nil
}

// trainUnit trains one document. unit is the global position of the document across
// epochs and seeds the window RNG, so a run with a single worker is reproducible.
func (c *TrainingCoordinator) trainUnit(unit int64, doc, numDocs int) error {
	sentence := c.resolve(c.corpus.Document(doc))
	c.wordsProcessed.Add(int64(len(sentence)))

	if unit%int64(c.config.LearningRateUpdateInterval) == 0 {
		c.scheduler.Update(unit)
	}
	alpha := c.scheduler.Rate()

	window := c.config.Window
	r := rand.New(rand.NewSource(c.config.Seed + unit + 1))

	for i := range sentence {
		center, err := c.wordAt(sentence, i)
		if err != nil {
			return err
		}

		b := r.Intn(window)
		for a := b; a < 2*window+1-b; a++ {
			if a == window {
				continue
			}
			j := i - window + a
			if j < 0 || j >= len(sentence) {
				continue
			}

			neighbor, err := c.wordAt(sentence, j)
			if err != nil {
				return err
			}
			if err := c.trainer.Train(center, neighbor, alpha); err != nil {
				return err
			}
		}
	}

	c.reportProgress(c.unitsCompleted.Add(1), numDocs)
	return nil
}

// resolve maps tokens to vocabulary indices according to the unknown word policy
func (c *TrainingCoordinator) resolve(tokens []string) []int {
	sentence := make([]int, 0, len(tokens))
	for _, token := range tokens {
		if idx, ok := c.store.Lookup(token); ok {
			sentence = append(sentence, idx)
			continue
		}
		if c.config.UnknownPolicy == UnknownFold {
			sentence = append(sentence, c.store.Unknown().Index)
		}
	}
	return sentence
}

func (c *TrainingCoordinator) wordAt(sentence []int, pos int) (*VocabWord, error) {
	for range maxWordReadAttempts {
		if w := c.store.WordAt(sentence[pos]); w != nil {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: no word at index %d after %d attempts",
		ErrInvalidVocabulary, sentence[pos], maxWordReadAttempts)
}

func (c *TrainingCoordinator) reportProgress(completed int64, numDocs int) {
	epochEnd := numDocs > 0 && completed%int64(numDocs) == 0
	if completed%int64(c.config.ProgressInterval) != 0 && !epochEnd {
		return
	}

	progress := c.snapshot(completed, numDocs)
	if epochEnd {
		c.logger.Infof("Epoch finished, epoch: %d/%d, words processed: %d, learning rate: %f",
			progress.Epoch, progress.TotalEpochs, progress.WordsProcessed, progress.LearningRate)
	} else {
		c.logger.Infof("Training progress, epoch: %d/%d, documents: %d/%d, words processed: %d, learning rate: %f",
			progress.Epoch, progress.TotalEpochs, progress.DocumentsProcessed, progress.TotalDocuments,
			progress.WordsProcessed, progress.LearningRate)
	}

	c.mtx.Lock()
	callback := c.progress
	c.mtx.Unlock()
	if callback != nil {
		callback(progress)
	}
}

// snapshot converts the completed unit count into an epoch-relative view. The epoch is
// 1-based; at an epoch boundary it reports the finished epoch with all its documents.
func (c *TrainingCoordinator) snapshot(completed int64, numDocs int) TrainingProgress {
	progress := TrainingProgress{
		TotalEpochs:    c.config.NumIterations,
		TotalDocuments: numDocs,
		WordsProcessed: c.wordsProcessed.Load(),
		LearningRate:   c.scheduler.Rate(),
		Elapsed:        time.Since(c.startTime),
	}
	if numDocs == 0 {
		return progress
	}

	finished := completed / int64(numDocs)
	docs := completed % int64(numDocs)
	if docs == 0 && finished > 0 {
		progress.Epoch = int(finished)
		progress.DocumentsProcessed = int64(numDocs)
	} else {
		progress.Epoch = int(finished) + 1
		progress.DocumentsProcessed = docs
	}
	return progress
}

// Progress returns a snapshot of the current run
func (c *TrainingCoordinator) Progress() TrainingProgress {
	c.mtx.Lock()
	scheduler := c.scheduler
	c.mtx.Unlock()

	if scheduler == nil {
		return TrainingProgress{TotalEpochs: c.config.NumIterations, LearningRate: c.config.LearningRate}
	}
	return c.snapshot(c.unitsCompleted.Load(), c.corpus.NumDocuments())
}
