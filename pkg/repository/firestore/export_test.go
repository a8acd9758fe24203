package firestore

var (
	StringField = stringField
	IntField    = intField
)
