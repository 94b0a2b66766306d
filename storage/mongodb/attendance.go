package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID primitive.ObjectID `bson:"student_id"`
	Date      time.Time          `bson:"date"`
	Day       time.Time          `bson:"day"`
	Status    string             `bson:"status"`
	Remarks   string             `bson:"remarks,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// attendanceJoined is the $lookup output shape: the populated student comes
// back as a 0-or-1 element array.
type attendanceJoined struct {
	attendanceDoc `bson:",inline"`
	Student       []studentDoc `bson:"student"`
}

type attendanceRepository struct {
	coll     *mongo.Collection
	students *mongo.Collection
	timeout  time.Duration
	loc      *time.Location
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(client *mongo.Client, conf *core.Config) attendance.Repository {
	db := client.Database(conf.Database.Name)
	loc := conf.Timezone
	if loc == nil {
		loc = time.Local
	}
	return &attendanceRepository{
		coll:     db.Collection(attendanceCollection),
		students: db.Collection(studentCollection),
		timeout:  conf.Database.Timeout,
		loc:      loc,
	}
}

func (repo *attendanceRepository) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), repo.timeout)
}

func (repo *attendanceRepository) marshal(att attendance.Attendance) (attendanceDoc, error) {
	stdOID, err := primitive.ObjectIDFromHex(att.StudentID)
	if err != nil {
		return attendanceDoc{}, attendance.ErrNotFound
	}
	doc := attendanceDoc{
		StudentID: stdOID,
		Date:      att.Date,
		Day:       att.Day,
		Status:    string(att.Status),
		Remarks:   att.Remarks,
		CreatedAt: att.CreatedAt.UTC(),
		UpdatedAt: att.UpdatedAt.UTC(),
	}
	if att.ID != "" {
		oid, err := primitive.ObjectIDFromHex(att.ID)
		if err != nil {
			return attendanceDoc{}, attendance.ErrNotFound
		}
		doc.ID = oid
	}
	return doc, nil
}

func (repo *attendanceRepository) unmarshal(doc attendanceDoc) attendance.Attendance {
	return attendance.Attendance{
		ID:        doc.ID.Hex(),
		StudentID: doc.StudentID.Hex(),
		Date:      doc.Date.In(repo.loc),
		Day:       doc.Day.In(repo.loc),
		Status:    attendance.Status(doc.Status),
		Remarks:   doc.Remarks,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// joined resolves the student summary with a secondary lookup. Orphaned
// records (student deleted) keep a zero-value summary.
func (repo *attendanceRepository) joined(ctx context.Context, doc attendanceDoc) (attendance.Attendance, error) {
	att := repo.unmarshal(doc)

	var std studentDoc
	err := repo.students.FindOne(ctx, bson.M{"_id": doc.StudentID}).Decode(&std)
	if err == mongo.ErrNoDocuments {
		return att, nil
	}
	if err != nil {
		return attendance.Attendance{}, wrapErr(err, "joining student summary")
	}
	att.Student = attendance.StudentSummary{
		ID:     std.ID.Hex(),
		Name:   std.Name,
		RollNo: std.RollNo,
		Class:  std.Class,
	}
	return att, nil
}

func (repo *attendanceRepository) CreateAttendance(att attendance.Attendance) (attendance.Attendance, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	doc, err := repo.marshal(att)
	if err != nil {
		return attendance.Attendance{}, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		// the unique (student_id, day) index settles check-then-act races
		if mongo.IsDuplicateKeyError(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
		return attendance.Attendance{}, wrapErr(err, "inserting attendance")
	}

	created, err := repo.joined(ctx, doc)
	if err != nil {
		// the insert went through; a failed summary lookup must not read as
		// a failed create. Callers see the same empty summary as on an
		// orphaned record.
		return repo.unmarshal(doc), nil
	}
	return created, nil
}

func (repo *attendanceRepository) GetAttendanceByID(id string) (attendance.Attendance, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}

	var doc attendanceDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, wrapErr(err, "getting attendance")
	}
	return repo.joined(ctx, doc)
}

func (repo *attendanceRepository) FindByStudentAndDay(studentID string, day attendance.DayInterval) (attendance.Attendance, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}

	filter := bson.M{
		"student_id": oid,
		"date":       bson.M{"$gte": day.Start, "$lt": day.End},
	}
	var doc attendanceDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, wrapErr(err, "finding attendance by student and day")
	}
	return repo.joined(ctx, doc)
}

// buildFilter is a pure function from the filter struct to a store query.
// The single-day filter and the start/end range are mutually exclusive; a
// set Date wins. It reports false when the filter can match nothing.
func buildFilter(filter attendance.QueryFilter, loc *time.Location) (bson.M, bool) {
	q := bson.M{}
	if filter.StudentID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.StudentID)
		if err != nil {
			return nil, false
		}
		q["student_id"] = oid
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if !filter.Date.IsZero() {
		day := attendance.Day(filter.Date, loc)
		q["date"] = bson.M{"$gte": day.Start, "$lt": day.End}
	} else if filter.HasRange() {
		dateRange := bson.M{}
		if !filter.StartDate.IsZero() {
			dateRange["$gte"] = filter.StartDate
		}
		if !filter.EndDate.IsZero() {
			dateRange["$lte"] = filter.EndDate
		}
		q["date"] = dateRange
	}
	return q, true
}

func (repo *attendanceRepository) FilterAttendance(filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	match, ok := buildFilter(filter, repo.loc)
	if !ok {
		return []attendance.Attendance{}, nil
	}

	sortKeys := bson.D{{Key: "date", Value: -1}}
	if !filter.HasRange() {
		sortKeys = append(sortKeys, bson.E{Key: "created_at", Value: -1})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: sortKeys}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         studentCollection,
			"localField":   "student_id",
			"foreignField": "_id",
			"as":           "student",
		}}},
	}
	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err, "querying attendance")
	}

	var docs []attendanceJoined
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapErr(err, "decoding attendance")
	}

	records := make([]attendance.Attendance, 0, len(docs))
	for _, doc := range docs {
		att := repo.unmarshal(doc.attendanceDoc)
		if len(doc.Student) > 0 {
			std := doc.Student[0]
			att.Student = attendance.StudentSummary{
				ID:     std.ID.Hex(),
				Name:   std.Name,
				RollNo: std.RollNo,
				Class:  std.Class,
			}
		}
		records = append(records, att)
	}
	return records, nil
}

func (repo *attendanceRepository) UpdateAttendance(att attendance.Attendance) (attendance.Attendance, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(att.ID)
	if err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"status":     string(att.Status),
		"remarks":    att.Remarks,
		"updated_at": att.UpdatedAt.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc attendanceDoc
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, wrapErr(err, "updating attendance")
	}
	return repo.joined(ctx, doc)
}

func (repo *attendanceRepository) DeleteAttendance(id string) (attendance.Attendance, error) {
	ctx, cancel := repo.ctx()
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}

	var doc attendanceDoc
	if err := repo.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, wrapErr(err, "deleting attendance")
	}
	return repo.joined(ctx, doc)
}
