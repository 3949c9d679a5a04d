// Package datasets bundles the small reference datasets shipped with the
// library.
package datasets

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/forestcv/forestcv/pkg/errors"
)

//go:embed iris.csv
var irisCSV []byte

// Iris is Fisher's iris dataset: 150 samples, 4 numeric features, and a
// three-level species label encoded as 0..2 in the order of ClassNames.
type Iris struct {
	// X is the 150×4 feature matrix.
	X *mat.Dense
	// Y is the 150×1 label column, values 0, 1, 2.
	Y *mat.Dense
	// FeatureNames names the columns of X.
	FeatureNames []string
	// ClassNames maps encoded labels back to species names.
	ClassNames []string
}

// LabelName returns the species name for an encoded label value.
func (d *Iris) LabelName(label float64) string {
	i := int(label)
	if i < 0 || i >= len(d.ClassNames) {
		return "unknown"
	}
	return d.ClassNames[i]
}

// LoadIris parses the embedded iris table. The data is compiled into the
// binary; no file or network access happens at run time.
func LoadIris() (*Iris, error) {
	r := csv.NewReader(bytes.NewReader(irisCSV))

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading iris header")
	}
	featureNames := header[:len(header)-1]

	var (
		features   []float64
		labels     []float64
		classNames []string
		classIndex = map[string]float64{}
	)

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading iris record")
		}
		for _, field := range rec[:len(rec)-1] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing feature value %q", field)
			}
			features = append(features, v)
		}
		species := rec[len(rec)-1]
		code, ok := classIndex[species]
		if !ok {
			code = float64(len(classNames))
			classIndex[species] = code
			classNames = append(classNames, species)
		}
		labels = append(labels, code)
	}

	n := len(labels)
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "iris table")
	}

	return &Iris{
		X:            mat.NewDense(n, len(featureNames), features),
		Y:            mat.NewDense(n, 1, labels),
		FeatureNames: featureNames,
		ClassNames:   classNames,
	}, nil
}
