package model

import "testing"

func TestBaseEstimator_StateTransitions(t *testing.T) {
	var e BaseEstimator

	// ゼロ値は未学習
	if e.IsFitted() {
		t.Error("zero value must start unfitted")
	}

	e.SetFitted()
	if !e.IsFitted() {
		t.Error("SetFitted must mark the estimator fitted")
	}

	// 再Fit時はResetで前回の学習結果を無効化する
	e.Reset()
	if e.IsFitted() {
		t.Error("Reset must return the estimator to the unfitted state")
	}
}
