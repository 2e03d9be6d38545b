package constants

// Обменники
const (
	ModelExchange = "model_exchange"
)

// Очереди и ключи маршрутизации
const (
	QueueRetrainCommands      = "model_retrain_commands"
	RoutingKeyRetrainCommands = "model.retrain.commands"

	RoutingKeyTrainingResults = "model.training.results"
	QueueTrainingResults      = "model_training_results"
)

// Финальная очередь для сообщений, исчерпавших ретраи
const (
	FinalDLXExchange   = "final_dlx"
	FinalDLQ           = "final_dlq"
	FinalDLQRoutingKey = "final_dlq"
)

// Заголовки с типом и версией события
const (
	HeaderEventType    = "event_type"
	HeaderEventVersion = "event_version"
)
