package feature

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/core/model"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// TfidfVectorizer converts documents into a tf-idf weighted term matrix.
//
// Fit learns a vocabulary capped at MaxFeatures terms, ranked by total
// corpus frequency with ties broken lexicographically, so the feature set
// is deterministic. Idf uses the smoothed form ln((1+n)/(1+df)) + 1, which
// keeps terms appearing in every document at weight 1 instead of 0.
// Row L2 normalization is off by default; the raw tf-idf values feed a
// penalized model that handles scaling through its penalty.
type TfidfVectorizer struct {
	model.BaseEstimator

	tokenizer   *Tokenizer
	maxFeatures int
	l2Norm      bool

	vocabulary_ map[string]int
	terms_      []string
	idf_        []float64
	nDocs_      int
}

// TfidfOption configures a TfidfVectorizer.
type TfidfOption func(*TfidfVectorizer)

// WithMaxFeatures caps the vocabulary at the n most frequent terms.
func WithMaxFeatures(n int) TfidfOption {
	return func(v *TfidfVectorizer) { v.maxFeatures = n }
}

// WithTokenizer sets the tokenizer used for both Fit and Transform.
func WithTokenizer(t *Tokenizer) TfidfOption {
	return func(v *TfidfVectorizer) { v.tokenizer = t }
}

// WithL2Norm enables L2 normalization of each document row.
func WithL2Norm() TfidfOption {
	return func(v *TfidfVectorizer) { v.l2Norm = true }
}

// NewTfidfVectorizer creates a TfidfVectorizer. The default vocabulary cap
// is 200 terms with the default Tokenizer.
func NewTfidfVectorizer(opts ...TfidfOption) *TfidfVectorizer {
	v := &TfidfVectorizer{
		tokenizer:   NewTokenizer(),
		maxFeatures: 200,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Fit learns the vocabulary and idf weights from docs.
func (v *TfidfVectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.NewModelError("TfidfVectorizer.Fit", "empty data", errors.ErrEmptyData)
	}

	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		tokens := v.tokenizer.Tokenize(doc)
		inDoc := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			corpusFreq[tok]++
			inDoc[tok] = true
		}
		for tok := range inDoc {
			docFreq[tok]++
		}
	}

	if len(corpusFreq) == 0 {
		return errors.NewValueError("TfidfVectorizer.Fit", "documents contain no tokens")
	}

	// Rank terms by corpus frequency, lexicographic on ties, and keep the
	// top maxFeatures.
	ranked := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		ranked = append(ranked, term)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if corpusFreq[ranked[i]] != corpusFreq[ranked[j]] {
			return corpusFreq[ranked[i]] > corpusFreq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if v.maxFeatures > 0 && len(ranked) > v.maxFeatures {
		ranked = ranked[:v.maxFeatures]
	}

	// Columns are ordered alphabetically over the kept terms.
	sort.Strings(ranked)

	v.terms_ = ranked
	v.vocabulary_ = make(map[string]int, len(ranked))
	v.idf_ = make([]float64, len(ranked))
	v.nDocs_ = len(docs)
	n := float64(len(docs))
	for j, term := range ranked {
		v.vocabulary_[term] = j
		v.idf_[j] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	v.SetFitted()
	return nil
}

// Transform returns the (len(docs) x NFeatures) tf-idf matrix for docs.
// Terms outside the fitted vocabulary are ignored.
func (v *TfidfVectorizer) Transform(docs []string) (*mat.Dense, error) {
	if !v.IsFitted() {
		return nil, errors.NewNotFittedError("TfidfVectorizer", "Transform")
	}

	result := mat.NewDense(len(docs), len(v.terms_), nil)
	for i, doc := range docs {
		for _, tok := range v.tokenizer.Tokenize(doc) {
			if j, ok := v.vocabulary_[tok]; ok {
				result.Set(i, j, result.At(i, j)+v.idf_[j])
			}
		}

		if v.l2Norm {
			row := result.RawRowView(i)
			norm := 0.0
			for _, val := range row {
				norm += val * val
			}
			if norm > 0 {
				norm = math.Sqrt(norm)
				for j := range row {
					row[j] /= norm
				}
			}
		}
	}
	return result, nil
}

// FitTransform fits the vectorizer on docs and transforms the same docs.
func (v *TfidfVectorizer) FitTransform(docs []string) (*mat.Dense, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// FeatureNames returns the vocabulary terms in column order.
func (v *TfidfVectorizer) FeatureNames() []string {
	names := make([]string, len(v.terms_))
	copy(names, v.terms_)
	return names
}

// Vocabulary returns a copy of the term to column index mapping.
func (v *TfidfVectorizer) Vocabulary() map[string]int {
	vocab := make(map[string]int, len(v.vocabulary_))
	for term, j := range v.vocabulary_ {
		vocab[term] = j
	}
	return vocab
}

// IDF returns a copy of the per-term idf weights in column order.
func (v *TfidfVectorizer) IDF() []float64 {
	idf := make([]float64, len(v.idf_))
	copy(idf, v.idf_)
	return idf
}

// NFeatures returns the vocabulary size.
func (v *TfidfVectorizer) NFeatures() int {
	return len(v.terms_)
}

// GetParams returns the vectorizer configuration.
func (v *TfidfVectorizer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_features": v.maxFeatures,
		"l2_norm":      v.l2Norm,
	}
}

// String returns a readable description of the vectorizer.
func (v *TfidfVectorizer) String() string {
	if !v.IsFitted() {
		return fmt.Sprintf("TfidfVectorizer(max_features=%d)", v.maxFeatures)
	}
	return fmt.Sprintf("TfidfVectorizer(max_features=%d, vocabulary=%d, n_docs=%d)",
		v.maxFeatures, len(v.terms_), v.nDocs_)
}
