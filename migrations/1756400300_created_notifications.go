package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "tl_notifications",
			"name": "notifications",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "number_nt_seq",
					"name": "seq",
					"type": "number",
					"required": false,
					"system": false
				},
				{
					"id": "text_nt_kind",
					"name": "kind",
					"type": "text",
					"required": true,
					"system": false
				},
				{
					"id": "text_nt_event_id",
					"name": "event_id",
					"type": "text",
					"required": false,
					"system": false
				},
				{
					"id": "text_nt_principal",
					"name": "principal",
					"type": "text",
					"required": false,
					"system": false
				},
				{
					"id": "text_nt_ticket_id",
					"name": "ticket_id",
					"type": "text",
					"required": false,
					"system": false
				},
				{
					"id": "number_nt_amount",
					"name": "amount",
					"type": "number",
					"required": false,
					"system": false
				},
				{
					"id": "text_nt_at",
					"name": "at",
					"type": "text",
					"required": false,
					"system": false
				}
			],
			"indexes": [
				"CREATE INDEX idx_notifications_event_id ON notifications (event_id)",
				"CREATE INDEX idx_notifications_kind ON notifications (kind)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tl_notifications")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
