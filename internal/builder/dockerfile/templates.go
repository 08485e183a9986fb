package dockerfile

import "github.com/alvesdmateus/image-builder/internal/analyzer"

// templates holds one multi-stage starter Dockerfile per supported language
var templates = map[analyzer.Language]string{
	analyzer.LanguageGo: `FROM golang:1.25-alpine AS build
WORKDIR /src
COPY go.mod go.sum ./
RUN go mod download
COPY . .
RUN CGO_ENABLED=0 go build -o /out/app .

FROM alpine:3.20
RUN apk add --no-cache ca-certificates
WORKDIR /app
COPY --from=build /out/app .
EXPOSE {{.Port}}
CMD ["./app"]
`,

	analyzer.LanguageNode: `FROM node:22-alpine AS build
WORKDIR /app
COPY package*.json ./
RUN npm ci --omit=dev
COPY . .

FROM node:22-alpine
WORKDIR /app
COPY --from=build /app .
EXPOSE {{.Port}}
USER node
CMD ["node", "{{.Entrypoint}}"]
`,

	analyzer.LanguagePython: `FROM python:3.12-slim
WORKDIR /app
COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt
COPY . .
EXPOSE {{.Port}}
CMD ["python", "{{.Entrypoint}}"]
`,

	analyzer.LanguageJava: `FROM maven:3.9-eclipse-temurin-21 AS build
WORKDIR /src
COPY pom.xml .
RUN mvn dependency:go-offline -q
COPY src ./src
RUN mvn package -q -DskipTests

FROM eclipse-temurin:21-jre
WORKDIR /app
COPY --from=build /src/target/*.jar app.jar
EXPOSE {{.Port}}
CMD ["java", "-jar", "app.jar"]
`,

}
