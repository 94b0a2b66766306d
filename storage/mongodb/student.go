package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/student"
)

type studentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	RollNo    string             `bson:"roll_no"`
	Class     string             `bson:"class"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type studentRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(client *mongo.Client, conf *core.Config) student.Repository {
	return &studentRepository{
		coll:    client.Database(conf.Database.Name).Collection(studentCollection),
		timeout: conf.Database.Timeout,
	}
}

func (repo *studentRepository) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), repo.timeout)
}

func (repo *studentRepository) marshal(std student.Student) (studentDoc, error) {
	doc := studentDoc{
		Name:      std.Name,
		RollNo:    std.RollNo,
		Class:     std.Class,
		CreatedAt: std.CreatedAt.UTC(),
		UpdatedAt: std.UpdatedAt.UTC(),
	}
	if std.ID != "" {
		oid, err := primitive.ObjectIDFromHex(std.ID)
		if err != nil {
			return studentDoc{}, student.ErrNotFound
		}
		doc.ID = oid
	}
	return doc, nil
}

func (repo *studentRepository) unmarshal(doc studentDoc) student.Student {
	return student.Student{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		RollNo:    doc.RollNo,
		Class:     doc.Class,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (repo *studentRepository) CheckRollNoUniqueness(rollNo string, excludedStudents ...student.Student) error {
	ctx, cancel := repo.ctx()
	defer cancel()

	filter := bson.M{"roll_no": rollNo}
	if len(excludedStudents) > 0 {
		exclIDs := make([]primitive.ObjectID, 0, len(excludedStudents))
		for _, std := range excludedStudents {
			if oid, err := primitive.ObjectIDFromHex(std.ID); err == nil {
				exclIDs = append(exclIDs, oid)
			}
		}
		filter["_id"] = bson.M{"$nin": exclIDs}
	}

	err := repo.coll.FindOne(ctx, filter).Err()
	if err == nil {
		return student.ErrRollNoExists
	}
	if err == mongo.ErrNoDocuments {
		return nil
	}
	return wrapErr(err, "checking roll number uniqueness")
}

func (repo *studentRepository) CreateStudent(std student.Student) (student.Student, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	doc, err := repo.marshal(std)
	if err != nil {
		return student.Student{}, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrRollNoExists
		}
		return student.Student{}, wrapErr(err, "inserting student")
	}
	return repo.unmarshal(doc), nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr(err, "querying students")
	}

	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapErr(err, "decoding students")
	}

	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, repo.unmarshal(doc))
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return student.Student{}, student.ErrNotFound
	}

	var doc studentDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, wrapErr(err, "getting student")
	}
	return repo.unmarshal(doc), nil
}

func (repo *studentRepository) UpdateStudent(std student.Student) (student.Student, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(std.ID)
	if err != nil {
		return student.Student{}, student.ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"name":       std.Name,
		"roll_no":    std.RollNo,
		"class":      std.Class,
		"updated_at": std.UpdatedAt.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc studentDoc
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrRollNoExists
		}
		return student.Student{}, wrapErr(err, "updating student")
	}
	return repo.unmarshal(doc), nil
}

func (repo *studentRepository) DeleteStudent(id string) (student.Student, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return student.Student{}, student.ErrNotFound
	}

	// no cascade: the student's attendance records are deliberately left in
	// place (they read back with an empty student summary)
	var doc studentDoc
	if err := repo.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, wrapErr(err, "deleting student")
	}
	return repo.unmarshal(doc), nil
}
