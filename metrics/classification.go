package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/forestcv/forestcv/pkg/errors"
)

// Accuracy は正解率（正しく分類されたサンプルの割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// ConfusionMatrix は観測ラベルと予測ラベルのクロス集計表を表す。
// 行が観測クラス、列が予測クラスに対応する。
// 各行の合計はそのクラスの実際の出現数に一致する。
type ConfusionMatrix struct {
	// Labels はソート済みのクラスラベル（行・列の順序）
	Labels []float64

	counts *mat.Dense
	n      int
}

// NewConfusionMatrix は(yTrue, yPred)から混同行列を構築する。
// ラベル集合は両ベクトルに現れる値の和集合をソートしたもの。
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	labels := uniqueLabels(yTrue, yPred)
	return NewConfusionMatrixWithLabels(yTrue, yPred, labels)
}

// NewConfusionMatrixWithLabels は固定ラベル集合で混同行列を構築する。
// 交差検証のfoldのように、あるクラスが欠落し得る場合に使用する。
// ラベル集合に含まれない値が現れた場合はエラーを返す。
func NewConfusionMatrixWithLabels(yTrue, yPred *mat.VecDense, labels []float64) (*ConfusionMatrix, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("NewConfusionMatrix", n, yPred.Len(), 0)
	}
	if len(labels) == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty label set")
	}

	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		obs, okObs := index[yTrue.AtVec(i)]
		pred, okPred := index[yPred.AtVec(i)]
		if !okObs {
			return nil, errors.NewValueError("NewConfusionMatrix",
				fmt.Sprintf("observed label %v not in label set", yTrue.AtVec(i)))
		}
		if !okPred {
			return nil, errors.NewValueError("NewConfusionMatrix",
				fmt.Sprintf("predicted label %v not in label set", yPred.AtVec(i)))
		}
		counts.Set(obs, pred, counts.At(obs, pred)+1)
	}

	out := make([]float64, len(labels))
	copy(out, labels)

	return &ConfusionMatrix{Labels: out, counts: counts, n: n}, nil
}

// At はセル(観測クラスi, 予測クラスj)のカウントを返す
func (cm *ConfusionMatrix) At(i, j int) float64 {
	return cm.counts.At(i, j)
}

// N は集計された総サンプル数を返す
func (cm *ConfusionMatrix) N() int {
	return cm.n
}

// Accuracy は正解率（対角成分の合計 / 全セルの合計）を返す
func (cm *ConfusionMatrix) Accuracy() float64 {
	diag := 0.0
	for i := range cm.Labels {
		diag += cm.counts.At(i, i)
	}
	return diag / float64(cm.n)
}

// Sensitivity は指定クラスの感度（再現率）を返す。
// 感度 = 対象クラスの真陽性数 / 対象クラスの実際の出現数。
// 対象クラスの実例が一つも存在しない場合は0/0で未定義となり、
// UndefinedMetricWarningを発行してNaNを返す。呼び出し側での補正は行わない。
func (cm *ConfusionMatrix) Sensitivity(label float64) (float64, error) {
	row := -1
	for i, l := range cm.Labels {
		if l == label {
			row = i
			break
		}
	}
	if row < 0 {
		return 0, errors.NewValueError("Sensitivity",
			fmt.Sprintf("label %v not in confusion matrix", label))
	}

	actual := 0.0
	for j := range cm.Labels {
		actual += cm.counts.At(row, j)
	}
	if actual == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("sensitivity",
			fmt.Sprintf("no observed samples of class %v", label), math.NaN()))
		return math.NaN(), nil
	}

	return cm.counts.At(row, row) / actual, nil
}

// Kappa はCohenのκ係数を返す。
// κ = (po - pe) / (1 - pe)。poは観測一致率、peは周辺分布から期待される偶然一致率。
// pe == 1（全サンプルが単一セルに集中）の場合は未定義となりNaNを返す。
func (cm *ConfusionMatrix) Kappa() float64 {
	po := cm.Accuracy()

	total := float64(cm.n)
	pe := 0.0
	for i := range cm.Labels {
		rowSum, colSum := 0.0, 0.0
		for j := range cm.Labels {
			rowSum += cm.counts.At(i, j)
			colSum += cm.counts.At(j, i)
		}
		pe += (rowSum / total) * (colSum / total)
	}

	if pe == 1 {
		errors.Warn(errors.NewUndefinedMetricWarning("kappa",
			"expected agreement is 1", math.NaN()))
		return math.NaN()
	}

	return (po - pe) / (1 - pe)
}

// String は混同行列を人が読める表形式で整形する
func (cm *ConfusionMatrix) String() string {
	var b strings.Builder
	b.WriteString("          Predicted\n")
	b.WriteString("Observed ")
	for _, l := range cm.Labels {
		fmt.Fprintf(&b, "%8v", l)
	}
	b.WriteString("\n")
	for i, l := range cm.Labels {
		fmt.Fprintf(&b, "%8v ", l)
		for j := range cm.Labels {
			fmt.Fprintf(&b, "%8.0f", cm.counts.At(i, j))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CohenKappa は(yTrue, yPred)からCohenのκ係数を計算するショートカット
func CohenKappa(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Kappa(), nil
}

// HarmonicMean は値の調和平均（逆数の算術平均の逆数）を計算する。
// いずれかの値が0の場合、結果は0となる（IEEE754の無限大経由で自然に得られる）。
// 負の値や空の入力にはエラーを返す。
func HarmonicMean(values ...float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.NewValueError("HarmonicMean", "empty input")
	}

	sum := 0.0
	for _, v := range values {
		if v < 0 {
			return 0, errors.NewValueError("HarmonicMean",
				fmt.Sprintf("negative value %v", v))
		}
		if math.IsNaN(v) {
			return math.NaN(), nil
		}
		sum += 1 / v
	}

	return float64(len(values)) / sum, nil
}

// uniqueLabels は二つのベクトルに現れるラベルの和集合をソートして返す
func uniqueLabels(vs ...*mat.VecDense) []float64 {
	seen := make(map[float64]struct{})
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			seen[v.AtVec(i)] = struct{}{}
		}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	return labels
}
