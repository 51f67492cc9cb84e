package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "tl_access_policies",
			"name": "access_policies",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_ap_event_id",
					"name": "event_id",
					"type": "text",
					"required": true,
					"system": false
				},
				{
					"id": "text_ap_organizer",
					"name": "organizer",
					"type": "text",
					"required": true,
					"system": false
				},
				{
					"id": "bool_ap_is_public",
					"name": "is_public",
					"type": "bool",
					"required": false,
					"system": false
				},
				{
					"id": "bool_ap_requires_payment",
					"name": "requires_payment",
					"type": "bool",
					"required": false,
					"system": false
				},
				{
					"id": "number_ap_payment_amount",
					"name": "payment_amount",
					"type": "number",
					"required": false,
					"system": false
				},
				{
					"id": "bool_ap_is_active",
					"name": "is_active",
					"type": "bool",
					"required": false,
					"system": false
				},
				{
					"id": "text_ap_participants",
					"name": "participants",
					"type": "text",
					"required": false,
					"system": false
				},
				{
					"id": "text_ap_created_at",
					"name": "created_at",
					"type": "text",
					"required": false,
					"system": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_access_policies_event_id ON access_policies (event_id)"
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
		collection, err := app.FindCollectionByNameOrId("tl_access_policies")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
