package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Registrar API",
        "description": "Course catalog, scheduling, enrollment and grading backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Catalog", "description": "Departments, courses, classrooms, time slots"},
        {"name": "Sections", "description": "Section scheduling"},
        {"name": "Enrollments", "description": "Student self-service enrollment"},
        {"name": "Grades", "description": "Grade ledger, GPA and transcripts"},
        {"name": "Directory", "description": "Student and teacher registration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change my password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses",
                "parameters": [
                    {"name": "dept_name", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create course (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Course already exists"}
                }
            }
        },
        "/courses/{courseId}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get course",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Catalog"],
                "summary": "Update course (admin)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Credits frozen by existing sections"}
                }
            },
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete course (admin)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Course has sections"}
                }
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List classrooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classrooms/{building}/rooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List rooms in a building",
                "parameters": [
                    {"name": "building", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/time-slots": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List time slots",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "sec_id", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Create section (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate key or room/time collision"}
                }
            }
        },
        "/sections/{courseId}/{secId}/{year}/{semester}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Sections"],
                "summary": "Update section (admin)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room/time collision"}
                }
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete section (admin)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Section has enrollments"}
                }
            }
        },
        "/sections/{courseId}/{secId}/{year}/{semester}/roster": {
            "get": {
                "tags": ["Sections"],
                "summary": "Section roster (admin, teacher)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/enroll": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll into a section (student)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Section full or duplicate enrollment"}
                }
            }
        },
        "/students/me/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "My enrollments (student)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/me/enrollments/{courseId}/{secId}/{year}/{semester}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Drop a section (student)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students/me/schedule": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "My weekly schedule (student)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/me/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "My graded courses (student)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/me/gpa": {
            "get": {
                "tags": ["Grades"],
                "summary": "My credit-weighted GPA (student)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/me/transcript": {
            "get": {
                "tags": ["Grades"],
                "summary": "Download my transcript (student)",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Transcript file"}
                }
            }
        },
        "/teachers/course-grades/{courseId}/{secId}/{year}/{semester}": {
            "get": {
                "tags": ["Grades"],
                "summary": "Roster with posted grades (teacher, admin)",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/grades": {
            "post": {
                "tags": ["Grades"],
                "summary": "Post a grade (teacher, admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not enrolled or grade already posted"}
                }
            }
        },
        "/teachers/grades/{studentId}/{courseId}/{secId}/{year}/{semester}": {
            "put": {
                "tags": ["Grades"],
                "summary": "Correct a posted grade (teacher, admin)",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "secId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeLetter"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grade records (admin)",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{id}": {
            "delete": {
                "tags": ["Grades"],
                "summary": "Delete a grade record (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/register/student": {
            "post": {
                "tags": ["Directory"],
                "summary": "Register a student (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student already registered"}
                }
            }
        },
        "/register/teacher": {
            "post": {
                "tags": ["Directory"],
                "summary": "Register a teacher (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterTeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Teacher already registered"}
                }
            }
        },
        "/users/max-id": {
            "get": {
                "tags": ["Directory"],
                "summary": "Next user id to be issued (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "CourseRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "credits": {"type": "integer"}
            },
            "required": ["course_id", "course_name", "dept_name", "credits"]
        },
        "SectionRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "sec_id": {"type": "string"},
                "semester": {"type": "string"},
                "year": {"type": "integer"},
                "building": {"type": "string"},
                "room_number": {"type": "string"},
                "time_slot_id": {"type": "string"},
                "capacity": {"type": "integer"}
            },
            "required": ["course_id", "sec_id", "semester", "year"]
        },
        "EnrollmentRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "sec_id": {"type": "string"},
                "semester": {"type": "string"},
                "year": {"type": "integer"}
            },
            "required": ["course_id", "sec_id", "semester", "year"]
        },
        "GradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "course_id": {"type": "string"},
                "sec_id": {"type": "string"},
                "semester": {"type": "string"},
                "year": {"type": "integer"},
                "grade": {"type": "string"}
            },
            "required": ["student_id", "course_id", "sec_id", "semester", "year", "grade"]
        },
        "GradeLetter": {
            "type": "object",
            "properties": {
                "grade": {"type": "string"}
            },
            "required": ["grade"]
        },
        "RegisterStudentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "major": {"type": "string"},
                "year": {"type": "integer"},
                "email": {"type": "string"},
                "tele": {"type": "string"},
                "high_school": {"type": "string"},
                "hometown": {"type": "string"},
                "date_of_birth": {"type": "string"}
            },
            "required": ["student_id", "student_name", "dept_name"]
        },
        "RegisterTeacherRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "teacher_name": {"type": "string"},
                "dept_name": {"type": "string"},
                "salary": {"type": "number"},
                "tele": {"type": "string"}
            },
            "required": ["teacher_id", "teacher_name", "dept_name"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
