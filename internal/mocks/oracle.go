package mocks

import (
	"fmt"

	gomock "go.uber.org/mock/gomock"
)

// NewLabelOracleFor returns a mock oracle that answers every call from
// labels. Calls are allowed any number of times.
func NewLabelOracleFor(ctrl *gomock.Controller, labels []int) *MockLabelOracle {
	m := NewMockLabelOracle(ctrl)
	label := func(sample int) (int, error) {
		if sample < 0 || sample >= len(labels) {
			return -1, fmt.Errorf("sample %d out of range", sample)
		}
		return labels[sample], nil
	}

	m.EXPECT().Len().Return(len(labels)).AnyTimes()
	m.EXPECT().Label(gomock.Any()).DoAndReturn(label).AnyTimes()
	m.EXPECT().Labels(gomock.Any()).DoAndReturn(func(samples []int) ([]int, error) {
		out := make([]int, len(samples))
		for i, s := range samples {
			l, err := label(s)
			if err != nil {
				return nil, err
			}
			out[i] = l
		}
		return out, nil
	}).AnyTimes()
	m.EXPECT().IsPredictionCorrect(gomock.Any(), gomock.Any()).DoAndReturn(func(class, sample int) (bool, error) {
		l, err := label(sample)
		if err != nil {
			return false, err
		}
		return l == class, nil
	}).AnyTimes()
	return m
}
