package model

// EstimatorState はモデルの学習状態を表す。
// DecisionTreeClassifierやRandomForestClassifierはFit成功時にFittedへ遷移する
type EstimatorState int

const (
	// NotFitted は未学習の状態。この状態でのPredict系呼び出しはNotFittedErrorになる
	NotFitted EstimatorState = iota
	// Fitted は学習済みの状態
	Fitted
)

// BaseEstimator は全ての分類器に埋め込まれる基底構造体。
// 規約: Fitの先頭でResetを呼んで前回の学習結果を無効化し、
// 学習が成功した場合のみSetFittedを呼ぶ。途中でエラーが起きた
// モデルは未学習のままになる
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset はモデルを未学習状態に戻す
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
