package controllers

import (
	"kukuhub/cache"
	"kukuhub/config"
	"kukuhub/mpesa"
	"kukuhub/rabbitmq"
)

var (
	cfg          *config.Config
	rabbitMQ     *rabbitmq.RabbitMQ
	orderCache   *cache.Cache
	mpesaClient  *mpesa.Client
	transactions *mpesa.TransactionStore
)

func SetConfig(c *config.Config) {
	cfg = c
}

func SetRabbitMQ(rmq *rabbitmq.RabbitMQ) {
	rabbitMQ = rmq
}

func SetCache(c *cache.Cache) {
	orderCache = c
}

func SetMpesa(client *mpesa.Client, store *mpesa.TransactionStore) {
	mpesaClient = client
	transactions = store
}
