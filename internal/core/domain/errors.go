package domain

import "errors"

var (
	// ErrUnsupportedInput - пайплайн отбросил единственную строку запроса
	ErrUnsupportedInput = errors.New("this combination of inputs is not supported")
	// ErrSourceUnavailable - исходные данные для обучения недоступны
	ErrSourceUnavailable = errors.New("listing source unavailable")
	// ErrModelNotReady - модель еще не обучена
	ErrModelNotReady = errors.New("model is not trained yet")
	// ErrNoTrainingData - после очистки не осталось строк для обучения
	ErrNoTrainingData = errors.New("no rows left for training after cleaning")
)
